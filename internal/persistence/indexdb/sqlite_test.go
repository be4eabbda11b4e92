package indexdb

import (
	"path/filepath"
	"testing"

	"hearthstead.gg/internal/sim/econ"
)

func testRecord(tick uint64) econ.TickRecord {
	rec := econ.TickRecord{
		Tick:     tick,
		Capacity: 500,
		Morale: econ.MoraleState{
			TownMorale:           30,
			ProductionMultiplier: 1.4,
			Label:                "content",
		},
		Alive:        8,
		Working:      7,
		AvgHappiness: 76.5,
		Consumed:     4,
		Digest:       "digest-for-tick",
	}
	rec.Stock[econ.ResourceFood] = 52.5
	rec.Produced[econ.ResourceFood] = 6.5
	return rec
}

func TestSQLiteIndex_RunRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if err := idx.StartRun("hamlet"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	runID := idx.RunID()
	if runID == 0 {
		t.Fatalf("run id not assigned")
	}

	for tick := uint64(1); tick <= 5; tick++ {
		rec := testRecord(tick)
		if err := idx.WriteTick(rec); err != nil {
			t.Fatalf("WriteTick %d: %v", tick, err)
		}
	}
	idx.FinishRun(econ.RunCompleted.String(), econ.Summary{Ticks: 5, Survivors: 8})
	idx.RecordValidation(true, nil)
	idx.Flush()

	row, err := idx.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if row.Scenario != "hamlet" {
		t.Fatalf("scenario = %q", row.Scenario)
	}
	if row.State != "COMPLETED" || row.Ticks != 5 || row.Survivors != 8 {
		t.Fatalf("run row = %+v", row)
	}

	n, err := idx.TickCount(runID)
	if err != nil {
		t.Fatalf("TickCount: %v", err)
	}
	if n != 5 {
		t.Fatalf("tick count = %d, want 5", n)
	}

	digest, err := idx.TickDigest(runID, 3)
	if err != nil {
		t.Fatalf("TickDigest: %v", err)
	}
	if digest != "digest-for-tick" {
		t.Fatalf("digest = %q", digest)
	}
}

func TestSQLiteIndex_WriteAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.StartRun("hamlet"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Late writers must not panic on the closed channel.
	if err := idx.WriteTick(testRecord(1)); err != nil {
		t.Fatalf("WriteTick after close: %v", err)
	}
	idx.FinishRun("COMPLETED", econ.Summary{})
	idx.RecordValidation(false, []string{"late"})
}

func TestSQLiteIndex_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.StartRun("one"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	first := idx.RunID()
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()
	if err := idx2.StartRun("two"); err != nil {
		t.Fatalf("StartRun 2: %v", err)
	}
	if idx2.RunID() <= first {
		t.Fatalf("run ids not monotonic: %d then %d", first, idx2.RunID())
	}

	row, err := idx2.GetRun(first)
	if err != nil {
		t.Fatalf("GetRun first: %v", err)
	}
	if row.Scenario != "one" {
		t.Fatalf("first run scenario = %q", row.Scenario)
	}
}
