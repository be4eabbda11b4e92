// Package scenario loads settlement setups from JSON and wires them
// into a ready simulator. Scenario files are validated against a JSON
// schema before decoding so host tooling gets structured feedback on
// malformed content instead of partial state.
package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hearthstead.gg/internal/sim/catalogs"
	"hearthstead.gg/internal/sim/econ"
	"hearthstead.gg/internal/sim/tuning"
)

type Scenario struct {
	Name string `json:"name"`

	StorageCapacity float64 `json:"storage_capacity"`
	Expansions      int     `json:"expansions,omitempty"`
	TechMultiplier  float64 `json:"tech_multiplier,omitempty"`

	Stock map[string]float64 `json:"stock,omitempty"`

	Buildings []BuildingPlacement `json:"buildings"`
	NPCs      []NPCGroup          `json:"npcs"`
}

type BuildingPlacement struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Pos  [3]int `json:"pos"`
}

// NPCGroup spawns Count NPCs of one role; if Building is set they are
// all assigned there, so the group must fit its free slots.
type NPCGroup struct {
	Role     string `json:"role"`
	Count    int    `json:"count"`
	Building string `json:"building,omitempty"`
}

// Load reads and schema-validates a scenario file.
func Load(path, schemaPath string) (Scenario, error) {
	var scn Scenario

	raw, err := os.ReadFile(path)
	if err != nil {
		return scn, err
	}

	if schemaPath != "" {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return scn, fmt.Errorf("scenario schema: %w", err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return scn, fmt.Errorf("scenario %s: %w", path, err)
		}
		if err := schema.Validate(doc); err != nil {
			return scn, fmt.Errorf("scenario %s: %w", path, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&scn); err != nil {
		return scn, fmt.Errorf("scenario %s: %w", path, err)
	}
	return scn, nil
}

// Build constructs a simulator from catalogs, tuning and a scenario.
// Every configuration error (unknown types, duplicate ids, overfull
// worker groups) surfaces here, before the first tick.
func Build(scn Scenario, cats *catalogs.Catalogs, tune tuning.Tuning) (*econ.Simulator, error) {
	if err := econ.ValidateCatalogs(cats); err != nil {
		return nil, err
	}

	cfg := econConfig(tune)
	if scn.TechMultiplier > 0 {
		cfg.TechMultiplier = scn.TechMultiplier
	}

	sim := econ.NewSimulator(cfg, cats)
	sim.SetExpansions(scn.Expansions)

	ledger := sim.Ledger()
	ledger.Capacity = scn.StorageCapacity
	for name, qty := range scn.Stock {
		r, ok := econ.ParseResource(name)
		if !ok {
			return nil, fmt.Errorf("scenario stock: unknown resource %q", name)
		}
		if qty < 0 {
			return nil, fmt.Errorf("scenario stock: negative quantity for %s", name)
		}
		ledger.Stock[r] = qty
	}

	for _, bp := range scn.Buildings {
		pos := econ.Vec3i{X: bp.Pos[0], Y: bp.Pos[1], Z: bp.Pos[2]}
		if _, err := sim.Production.CreateBuilding(bp.ID, bp.Type, pos); err != nil {
			return nil, fmt.Errorf("building %s: %w", bp.ID, err)
		}
	}

	for _, grp := range scn.NPCs {
		for i := 0; i < grp.Count; i++ {
			n, err := sim.Consumption.CreateNPC(grp.Role)
			if err != nil {
				return nil, fmt.Errorf("npc group %s: %w", grp.Role, err)
			}
			if grp.Building != "" {
				if err := sim.Production.AssignNPC(n, grp.Building); err != nil {
					return nil, fmt.Errorf("npc group %s -> %s: %w", grp.Role, grp.Building, err)
				}
			}
		}
	}

	return sim, nil
}

func econConfig(t tuning.Tuning) econ.Config {
	cfg := econ.DefaultConfig()
	if t.HardMultiplierCap > 0 {
		cfg.HardMultiplierCap = t.HardMultiplierCap
	}
	if t.MoraleMultiplierFloor > 0 {
		cfg.MoraleMultiplierFloor = t.MoraleMultiplierFloor
	}
	if t.NeutralHappiness > 0 {
		cfg.NeutralHappiness = t.NeutralHappiness
	}
	if t.StartHappiness > 0 {
		cfg.StartHappiness = t.StartHappiness
	}
	if t.HappinessStep > 0 {
		cfg.HappinessStep = t.HappinessStep
	}
	if t.StarvationDeathTicks > 0 {
		cfg.StarvationDeathTicks = t.StarvationDeathTicks
	}
	if t.MoraleFoodHorizonTicks > 0 {
		cfg.MoraleFoodHorizonTicks = t.MoraleFoodHorizonTicks
	}
	if t.ExpansionMoraleBonus > 0 {
		cfg.ExpansionMoraleBonus = t.ExpansionMoraleBonus
	}
	return cfg
}
