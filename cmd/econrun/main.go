// Command econrun executes a scenario for a fixed number of ticks
// without wall-clock pacing and reports the outcome. Exit code 1 means
// the balance validation failed.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hearthstead.gg/internal/protocol"
	"hearthstead.gg/internal/sim/catalogs"
	"hearthstead.gg/internal/sim/econ"
	"hearthstead.gg/internal/sim/scenario"
	"hearthstead.gg/internal/sim/tuning"
)

func main() {
	var (
		configDir    = flag.String("configs", "./configs", "config directory")
		scenarioPath = flag.String("scenario", "", "scenario path (default: <configs>/scenario.json)")
		schemaPath   = flag.String("schema", "./schemas/scenario.schema.json", "scenario json schema (empty to skip validation)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		ticks        = flag.Int("ticks", 100, "number of ticks to simulate")
		verbose      = flag.Bool("verbose", false, "print a report line per tick")
	)
	flag.Parse()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(2)
	}

	sp := strings.TrimSpace(*scenarioPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "scenario.json")
	}
	scn, err := scenario.Load(sp, strings.TrimSpace(*schemaPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load scenario:", err)
		os.Exit(2)
	}

	sim, err := scenario.Build(scn, cats, tune)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build scenario: %s: %v\n", protocol.CodeForError(err), err)
		os.Exit(2)
	}

	for i := 0; i < *ticks; i++ {
		rec := sim.Step()
		if *verbose {
			fmt.Printf("tick %4d  morale=%6.1f (%s)  mul=%.3f  food=%8.2f  alive=%d  produced=%.2f  consumed=%.2f",
				rec.Tick, rec.Morale.TownMorale, rec.Morale.Label, rec.Morale.ProductionMultiplier,
				rec.Stock[econ.ResourceFood], rec.Alive, rec.Produced.Total(), rec.Consumed)
			if rec.Shortfall > 0 {
				fmt.Printf("  shortfall=%.2f", rec.Shortfall)
			}
			if len(rec.Deaths) > 0 {
				fmt.Printf("  deaths=%v", rec.Deaths)
			}
			if rec.Overflow {
				fmt.Printf("  OVERFLOW +%.2f", rec.Overage)
			}
			fmt.Println()
		}
		if sim.State() != econ.RunRunning {
			break
		}
	}
	sim.Finish()

	sum := sim.Summarize()
	fmt.Printf("\nscenario %s: %s after %d ticks\n", scn.Name, sum.State, sum.Ticks)
	fmt.Printf("  survivors=%d deaths=%d morale=%.1f (%s)\n", sum.Survivors, sum.Deaths, sum.FinalMorale, sum.MoraleLabel)
	fmt.Printf("  stock: %v\n", sum.FinalStock)
	fmt.Printf("  produced: %v consumed=%.2f shortfall=%.2f overflow_ticks=%d\n",
		sum.Produced, sum.Consumed, sum.Shortfall, sum.OverflowTicks)

	ok, issues := sim.ValidateBalance()
	if ok {
		fmt.Println("balance validation: PASS")
		return
	}
	fmt.Println("balance validation: FAIL")
	for _, issue := range issues {
		fmt.Println("  -", issue)
	}
	os.Exit(1)
}
