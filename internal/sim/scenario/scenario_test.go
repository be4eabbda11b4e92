package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"hearthstead.gg/internal/sim/catalogs"
	"hearthstead.gg/internal/sim/econ"
	"hearthstead.gg/internal/sim/tuning"
)

const (
	configDir    = "../../../configs"
	scenarioPath = "../../../configs/scenario.json"
	schemaPath   = "../../../schemas/scenario.schema.json"
	tuningPath   = "../../../configs/tuning.yaml"
)

func loadAll(t *testing.T) (Scenario, *catalogs.Catalogs, tuning.Tuning) {
	t.Helper()
	scn, err := Load(scenarioPath, schemaPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	return scn, cats, tune
}

func TestLoad_ShippedScenario(t *testing.T) {
	scn, _, _ := loadAll(t)
	if scn.Name != "hamlet" {
		t.Fatalf("name = %q", scn.Name)
	}
	if scn.StorageCapacity != 500 {
		t.Fatalf("storage capacity = %.0f", scn.StorageCapacity)
	}
	if len(scn.Buildings) != 7 || len(scn.NPCs) != 5 {
		t.Fatalf("buildings=%d npc groups=%d", len(scn.Buildings), len(scn.NPCs))
	}
}

func TestLoad_SchemaRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"name":"x","storage_capacity":10,"buildings":[],"npcs":[],"weather":"RAIN"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path, schemaPath); err == nil {
		t.Fatalf("unknown field accepted")
	}
}

func TestLoad_SchemaRejectsMissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"name":"x","buildings":[],"npcs":[]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path, schemaPath); err == nil {
		t.Fatalf("scenario without storage_capacity accepted")
	}
}

func TestBuild_ShippedScenarioRunsClean(t *testing.T) {
	scn, cats, tune := loadAll(t)
	sim, err := Build(scn, cats, tune)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if sim.Production.BuildingCount() != 7 {
		t.Fatalf("building count = %d", sim.Production.BuildingCount())
	}
	if sim.Consumption.AliveCount() != 8 {
		t.Fatalf("alive = %d, want 8", sim.Consumption.AliveCount())
	}
	if sim.Consumption.WorkingCount() != 7 {
		t.Fatalf("working = %d, want 7 (one unassigned)", sim.Consumption.WorkingCount())
	}
	if got := sim.Ledger().Stock[econ.ResourceFood]; got != 50 {
		t.Fatalf("starting food = %.1f, want 50", got)
	}

	state := sim.Run(200)
	if state != econ.RunCompleted {
		t.Fatalf("state = %v, want COMPLETED", state)
	}
	if ok, issues := sim.ValidateBalance(); !ok {
		t.Fatalf("shipped scenario failed validation: %v", issues)
	}
	if sim.Consumption.AliveCount() != 8 {
		t.Fatalf("shipped scenario lost inhabitants: %d alive", sim.Consumption.AliveCount())
	}
}

func TestBuild_DeterministicReplay(t *testing.T) {
	scn, cats, tune := loadAll(t)

	s1, err := Build(scn, cats, tune)
	if err != nil {
		t.Fatalf("build 1: %v", err)
	}
	s2, err := Build(scn, cats, tune)
	if err != nil {
		t.Fatalf("build 2: %v", err)
	}

	for tick := 0; tick < 100; tick++ {
		r1 := s1.Step()
		r2 := s2.Step()
		if r1.Digest != r2.Digest {
			t.Fatalf("digest diverged at tick %d:\n  %s\n  %s", r1.Tick, r1.Digest, r2.Digest)
		}
	}
}

func TestBuild_RejectsBadReferences(t *testing.T) {
	_, cats, tune := loadAll(t)

	base := Scenario{Name: "x", StorageCapacity: 100}

	bad := base
	bad.Stock = map[string]float64{"MANA": 5}
	if _, err := Build(bad, cats, tune); err == nil {
		t.Fatalf("unknown stock resource accepted")
	}

	bad = base
	bad.Buildings = []BuildingPlacement{{ID: "a", Type: "VOLCANO"}}
	if _, err := Build(bad, cats, tune); err == nil {
		t.Fatalf("unknown building type accepted")
	}

	bad = base
	bad.Buildings = []BuildingPlacement{
		{ID: "a", Type: "FARM"},
		{ID: "a", Type: "FARM", Pos: [3]int{1, 0, 0}},
	}
	if _, err := Build(bad, cats, tune); err == nil {
		t.Fatalf("duplicate building id accepted")
	}

	bad = base
	bad.NPCs = []NPCGroup{{Role: "DRAGON", Count: 1}}
	if _, err := Build(bad, cats, tune); err == nil {
		t.Fatalf("unknown role accepted")
	}

	bad = base
	bad.Buildings = []BuildingPlacement{{ID: "farm1", Type: "FARM"}}
	bad.NPCs = []NPCGroup{{Role: "FARMER", Count: 3, Building: "farm1"}}
	if _, err := Build(bad, cats, tune); err == nil {
		t.Fatalf("overfull worker group accepted")
	}
}

func TestBuild_TechMultiplierOverride(t *testing.T) {
	_, cats, tune := loadAll(t)

	scn := Scenario{
		Name:            "tech",
		StorageCapacity: 100,
		TechMultiplier:  1.5,
		Stock:           map[string]float64{"FOOD": 100},
		Buildings:       []BuildingPlacement{{ID: "farm1", Type: "FARM", Pos: [3]int{200, 0, 0}}},
		NPCs:            []NPCGroup{{Role: "FARMER", Count: 1, Building: "farm1"}},
	}
	sim, err := Build(scn, cats, tune)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	rec := sim.Step()
	// No aura, neutral zone and skill: output = rate * tech * morale.
	want := 1.5 * 1.5 * rec.Morale.ProductionMultiplier
	if want > tune.HardMultiplierCap*1.5 {
		want = tune.HardMultiplierCap * 1.5
	}
	if diff := rec.Produced[econ.ResourceFood] - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("tech production = %.6f, want %.6f", rec.Produced[econ.ResourceFood], want)
	}
}
