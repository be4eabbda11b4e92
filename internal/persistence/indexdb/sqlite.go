// Package indexdb keeps a queryable SQLite index of simulation runs:
// one row per run, one row per tick, plus validation verdicts. It is a
// reporting sink, not simulation state; the sim never reads it back.
package indexdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"hearthstead.gg/internal/sim/econ"
)

type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	runID int64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqFinish
	reqValidation
	reqSync
)

type req struct {
	kind reqKind

	tick     econ.TickRecord
	finish   finishRow
	validate validationRow
	done     chan struct{}
}

type finishRow struct {
	State     string
	Ticks     int
	Survivors int
	Deaths    int
}

type validationRow struct {
	OK     bool
	Issues []string
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			started_at TEXT NOT NULL,
			state TEXT NOT NULL,
			ticks INTEGER NOT NULL DEFAULT 0,
			survivors INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			morale REAL NOT NULL,
			multiplier REAL NOT NULL,
			alive INTEGER NOT NULL,
			working INTEGER NOT NULL,
			avg_happiness REAL NOT NULL,
			food REAL NOT NULL,
			stock_json TEXT NOT NULL,
			produced_json TEXT NOT NULL,
			consumed REAL NOT NULL,
			shortfall REAL NOT NULL,
			overflow INTEGER NOT NULL,
			overage REAL NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_run ON ticks(run_id);`,
		`CREATE TABLE IF NOT EXISTS validations (
			run_id INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			issues_json TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// StartRun registers a run synchronously so its id exists before the
// first tick row arrives.
func (s *SQLiteIndex) StartRun(scenarioName string) error {
	res, err := s.db.Exec(
		`INSERT INTO runs (scenario, started_at, state) VALUES (?, ?, ?);`,
		scenarioName, time.Now().UTC().Format(time.RFC3339Nano), econ.RunRunning.String(),
	)
	if err != nil {
		return err
	}
	s.runID, err = res.LastInsertId()
	return err
}

func (s *SQLiteIndex) RunID() int64 { return s.runID }

// WriteTick implements econ.TickLogger. Drops rows if the indexer falls
// behind; the JSONL logs remain the source of truth.
func (s *SQLiteIndex) WriteTick(rec econ.TickRecord) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: rec}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) FinishRun(state string, sum econ.Summary) {
	if s == nil || s.closed.Load() {
		return
	}
	r := finishRow{State: state, Ticks: sum.Ticks, Survivors: sum.Survivors, Deaths: sum.Deaths}
	select {
	case s.ch <- req{kind: reqFinish, finish: r}:
	default:
	}
}

func (s *SQLiteIndex) RecordValidation(ok bool, issues []string) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqValidation, validate: validationRow{OK: ok, Issues: issues}}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqTick:
			s.insertTick(r.tick)
		case reqFinish:
			s.updateRun(r.finish)
		case reqValidation:
			s.insertValidation(r.validate)
		case reqSync:
			close(r.done)
		}
	}
}

func (s *SQLiteIndex) insertTick(rec econ.TickRecord) {
	stockJSON, _ := json.Marshal(rec.Stock.Map())
	producedJSON, _ := json.Marshal(rec.Produced.Map())
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO ticks
		 (run_id, tick, digest, morale, multiplier, alive, working, avg_happiness,
		  food, stock_json, produced_json, consumed, shortfall, overflow, overage)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		s.runID, rec.Tick, rec.Digest,
		rec.Morale.TownMorale, rec.Morale.ProductionMultiplier,
		rec.Alive, rec.Working, rec.AvgHappiness,
		rec.Stock[econ.ResourceFood], string(stockJSON), string(producedJSON),
		rec.Consumed, rec.Shortfall, boolInt(rec.Overflow), rec.Overage,
	)
}

func (s *SQLiteIndex) updateRun(r finishRow) {
	_, _ = s.db.Exec(
		`UPDATE runs SET state = ?, ticks = ?, survivors = ?, deaths = ? WHERE id = ?;`,
		r.State, r.Ticks, r.Survivors, r.Deaths, s.runID,
	)
}

func (s *SQLiteIndex) insertValidation(r validationRow) {
	issues, _ := json.Marshal(r.Issues)
	_, _ = s.db.Exec(
		`INSERT INTO validations (run_id, ok, issues_json, recorded_at) VALUES (?, ?, ?, ?);`,
		s.runID, boolInt(r.OK), string(issues), time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// Flush blocks until every previously queued row has been written.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqSync, done: done}
	<-done
}

// RunRow mirrors the runs table for queries.
type RunRow struct {
	ID        int64  `db:"id"`
	Scenario  string `db:"scenario"`
	StartedAt string `db:"started_at"`
	State     string `db:"state"`
	Ticks     int    `db:"ticks"`
	Survivors int    `db:"survivors"`
	Deaths    int    `db:"deaths"`
}

func (s *SQLiteIndex) GetRun(id int64) (RunRow, error) {
	var row RunRow
	err := s.db.Get(&row, `SELECT id, scenario, started_at, state, ticks, survivors, deaths FROM runs WHERE id = ?;`, id)
	return row, err
}

func (s *SQLiteIndex) TickCount(runID int64) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM ticks WHERE run_id = ?;`, runID)
	return n, err
}

func (s *SQLiteIndex) TickDigest(runID int64, tick uint64) (string, error) {
	var d string
	err := s.db.Get(&d, `SELECT digest FROM ticks WHERE run_id = ? AND tick = ?;`, runID, tick)
	return d, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
