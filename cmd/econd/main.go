package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hearthstead.gg/internal/persistence/indexdb"
	persistlog "hearthstead.gg/internal/persistence/log"
	"hearthstead.gg/internal/protocol"
	"hearthstead.gg/internal/sim/catalogs"
	"hearthstead.gg/internal/sim/econ"
	"hearthstead.gg/internal/sim/scenario"
	"hearthstead.gg/internal/sim/tuning"
	"hearthstead.gg/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		configDir    = flag.String("configs", "./configs", "config directory")
		scenarioPath = flag.String("scenario", "", "scenario path (default: <configs>/scenario.json)")
		schemaPath   = flag.String("schema", "./schemas/scenario.schema.json", "scenario json schema (empty to skip validation)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		maxTicks     = flag.Int("max_ticks", 0, "stop after this many ticks (0 = run until halted)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite run index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[econd] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	sp := strings.TrimSpace(*scenarioPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "scenario.json")
	}
	scn, err := scenario.Load(sp, strings.TrimSpace(*schemaPath))
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	sim, err := scenario.Build(scn, cats, tune)
	if err != nil {
		logger.Fatalf("build scenario: %s: %v", protocol.CodeForError(err), err)
	}

	runDir := filepath.Join(*dataDir, "runs", scn.Name)
	_ = os.MkdirAll(runDir, 0o755)

	tickLog := persistlog.NewTickLogger(runDir)
	defer tickLog.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(runDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.StartRun(scn.Name); err != nil {
			logger.Fatalf("index db: start run: %v", err)
		}
	}

	sinks := multiTickLogger{tickLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	sim.SetTickLogger(sinks)

	obs := observer.NewServer(func() protocol.BootstrapResponse {
		return protocol.BootstrapResponse{
			ProtocolVersion: protocol.Version,
			Scenario:        scn.Name,
			Tick:            sim.CurrentTick(),
			State:           sim.State().String(),
			TickDurationMs:  tune.TickDurationMs,
			Catalogs: protocol.CatalogInfo{
				ResourcePalette: cats.Resources.Palette,
				ResourcesDigest: cats.Resources.Digest,
				BuildingsDigest: cats.Buildings.Digest,
				RolesDigest:     cats.Roles.Digest,
			},
		}
	}, logger, tune.Observer.MaxSessions, tune.Observer.SendBuffer)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/ws", obs.WSHandler())
	mux.HandleFunc("/v1/summary", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(sim.Summarize())
	})
	mux.HandleFunc("/v1/validate", func(rw http.ResponseWriter, r *http.Request) {
		ok, issues := sim.ValidateBalance()
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": ok, "issues": issues})
	})

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("scenario=%s buildings=%d alive=%d tick_duration=%dms",
		scn.Name, sim.Production.BuildingCount(), sim.Consumption.AliveCount(), tune.TickDurationMs)

	interval := time.Duration(tune.TickDurationMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Printf("shutting down at tick %d", sim.CurrentTick())
			break loop
		case <-ticker.C:
			rec := sim.Step()
			payload, _ := json.Marshal(protocol.TickReportFromRecord(rec))
			obs.Broadcast(rec.Tick, payload)

			if sim.State() == econ.RunHaltedNoSurvivors {
				logger.Printf("halted: no survivors at tick %d", rec.Tick)
				break loop
			}
			if *maxTicks > 0 && int(sim.CurrentTick()) >= *maxTicks {
				logger.Printf("reached max_ticks=%d", *maxTicks)
				break loop
			}
		}
	}

	sim.Finish()
	sum := sim.Summarize()
	sumPayload, _ := json.Marshal(protocol.SummaryFromRun(sum))
	obs.Broadcast(0, sumPayload) // tick 0 bypasses thinning, reaches everyone
	ok, issues := sim.ValidateBalance()
	if idx != nil {
		idx.FinishRun(sim.State().String(), sum)
		idx.RecordValidation(ok, issues)
		idx.Flush()
	}
	logger.Printf("run finished state=%s ticks=%d survivors=%d deaths=%d valid=%v",
		sum.State, sum.Ticks, sum.Survivors, sum.Deaths, ok)
	for _, issue := range issues {
		logger.Printf("validation: %s", issue)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

// multiTickLogger fans records out to every sink.
type multiTickLogger []econ.TickLogger

func (m multiTickLogger) WriteTick(rec econ.TickRecord) error {
	for _, l := range m {
		_ = l.WriteTick(rec)
	}
	return nil
}
