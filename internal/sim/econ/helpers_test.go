package econ

import (
	"math"
	"testing"

	"hearthstead.gg/internal/sim/catalogs"
)

// testCatalogs builds a small in-memory catalog set so unit tests do not
// depend on the shipped config files.
func testCatalogs() *catalogs.Catalogs {
	buildings := map[string]catalogs.BuildingDef{
		"TOWN_CENTER": {
			ID:      "TOWN_CENTER",
			Housing: 4,
			Aura:    &catalogs.AuraDef{Radius: 50, Bonus: 0.05},
		},
		"SHRINE": {
			ID:   "SHRINE",
			Aura: &catalogs.AuraDef{Radius: 50, Bonus: 0.10},
		},
		"CAMPFIRE": {ID: "CAMPFIRE", Passive: true, Housing: 2},
		"FARM":     {ID: "FARM", Rates: map[string]float64{"FOOD": 1.0}, WorkerSlots: 2},
		"MILL":     {ID: "MILL", Rates: map[string]float64{"FOOD": 1.0}, Passive: true},
		"WORKSHOP": {ID: "WORKSHOP", Rates: map[string]float64{"WOOD": 0.6, "STONE": 0.3}, WorkerSlots: 3},
		"BRAZIER":  {ID: "BRAZIER", Rates: map[string]float64{"GOLD": 0.1}, Passive: true},
		"HOUSE":    {ID: "HOUSE", Housing: 5},
	}
	roles := map[string]catalogs.RoleDef{
		"FARMER":  {ID: "FARMER", FoodPerTick: 0.5, SkillMultiplier: 1.0},
		"WORKER":  {ID: "WORKER", FoodPerTick: 0.5, SkillMultiplier: 1.0},
		"ARTISAN": {ID: "ARTISAN", FoodPerTick: 0.6, SkillMultiplier: 1.25},
	}

	c := &catalogs.Catalogs{
		Resources: catalogs.ResourceCatalog{
			Palette: []string{"FOOD", "WOOD", "STONE", "GOLD"},
			Index:   map[string]uint16{"FOOD": 0, "WOOD": 1, "STONE": 2, "GOLD": 3},
		},
		Buildings: catalogs.BuildingCatalog{ByID: buildings},
		Roles:     catalogs.RoleCatalog{ByID: roles},
	}
	for id := range buildings {
		c.Buildings.Order = append(c.Buildings.Order, id)
	}
	for id := range roles {
		c.Roles.Order = append(c.Roles.Order, id)
	}
	return c
}

func newTestSim(t *testing.T) *Simulator {
	t.Helper()
	cats := testCatalogs()
	if err := ValidateCatalogs(cats); err != nil {
		t.Fatalf("test catalogs invalid: %v", err)
	}
	return NewSimulator(DefaultConfig(), cats)
}

func mustBuilding(t *testing.T, ps *ProductionSystem, id, typ string, pos Vec3i) *Building {
	t.Helper()
	b, err := ps.CreateBuilding(id, typ, pos)
	if err != nil {
		t.Fatalf("create building %s: %v", id, err)
	}
	return b
}

func mustNPC(t *testing.T, cs *ConsumptionSystem, role string) *NPC {
	t.Helper()
	n, err := cs.CreateNPC(role)
	if err != nil {
		t.Fatalf("create npc %s: %v", role, err)
	}
	return n
}

func assign(t *testing.T, ps *ProductionSystem, n *NPC, buildingID string) {
	t.Helper()
	if err := ps.AssignNPC(n, buildingID); err != nil {
		t.Fatalf("assign %s -> %s: %v", n.ID, buildingID, err)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
