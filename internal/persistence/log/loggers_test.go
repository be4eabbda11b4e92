package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"hearthstead.gg/internal/protocol"
	"hearthstead.gg/internal/sim/econ"
)

func TestTickLogger_WritesDecodableReports(t *testing.T) {
	dir := t.TempDir()

	l := NewTickLogger(dir)
	for tick := uint64(1); tick <= 3; tick++ {
		rec := econ.TickRecord{
			Tick:     tick,
			Capacity: 500,
			Morale:   econ.MoraleState{TownMorale: 10, ProductionMultiplier: 1.2, Label: "steady"},
			Alive:    8,
			Digest:   "abc",
		}
		rec.Stock[econ.ResourceFood] = 40 + float64(tick)
		if err := l.WriteTick(rec); err != nil {
			t.Fatalf("WriteTick %d: %v", tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "ticks", "ticks-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files = %v (err %v), want exactly one", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	var lines int
	for sc.Scan() {
		lines++
		var msg protocol.TickReportMsg
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if msg.Type != protocol.TypeTickReport || msg.Tick != uint64(lines) {
			t.Fatalf("line %d: type=%q tick=%d", lines, msg.Type, msg.Tick)
		}
		if msg.Stock["FOOD"] != 40+float64(lines) {
			t.Fatalf("line %d: food = %.2f", lines, msg.Stock["FOOD"])
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != 3 {
		t.Fatalf("lines = %d, want 3", lines)
	}
}
