// Package econ implements the settlement economy core: a deterministic,
// single-threaded tick simulation of production, consumption and morale.
// All state must be accessed only from the goroutine driving the simulator.
package econ

import (
	"errors"
	"fmt"
	"math"

	"hearthstead.gg/internal/sim/catalogs"
)

// Resource is a closed enumeration of stockpiled resource kinds.
type Resource uint8

const (
	ResourceFood Resource = iota
	ResourceWood
	ResourceStone
	ResourceGold

	NumResources = 4
)

var resourceNames = [NumResources]string{"FOOD", "WOOD", "STONE", "GOLD"}

func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return fmt.Sprintf("RESOURCE_%d", uint8(r))
}

func ParseResource(s string) (Resource, bool) {
	for i, name := range resourceNames {
		if name == s {
			return Resource(i), true
		}
	}
	return 0, false
}

// Stockpile holds a quantity per resource kind. Fixed-size array so
// copies are cheap and snapshots in tick records are true values.
type Stockpile [NumResources]float64

func (s Stockpile) Total() float64 {
	sum := 0.0
	for _, q := range s {
		sum += q
	}
	return sum
}

func (s Stockpile) IsZero() bool {
	for _, q := range s {
		if q != 0 {
			return false
		}
	}
	return true
}

// Map renders the stockpile with resource names as keys, for reports.
func (s Stockpile) Map() map[string]float64 {
	m := make(map[string]float64, NumResources)
	for r := Resource(0); r < NumResources; r++ {
		m[r.String()] = s[r]
	}
	return m
}

// Ledger is the shared resource pool for one settlement. Capacity covers
// the summed quantity across all kinds; overflow is reported, not clamped.
type Ledger struct {
	Stock    Stockpile
	Capacity float64
}

func (l *Ledger) Total() float64 { return l.Stock.Total() }

// Vec3i is an integer world position.
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func dist(a, b Vec3i) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Building is a registered production site. Created once at scenario
// setup; never destroyed by the core.
type Building struct {
	ID   string
	Type string
	Pos  Vec3i

	Def catalogs.BuildingDef

	// ZoneMul is a position-derived production factor. 1.0 unless the
	// scenario places the building in a special zone.
	ZoneMul float64

	Workers []*NPC
}

// FreeSlots returns the remaining worker capacity.
func (b *Building) FreeSlots() int {
	return b.Def.WorkerSlots - len(b.Workers)
}

// staffed reports whether the building produces this tick: passive types
// always do, worker-dependent types need at least one alive worker.
func (b *Building) staffed() bool {
	if b.Def.Passive {
		return true
	}
	for _, n := range b.Workers {
		if n.Alive {
			return true
		}
	}
	return false
}

// NPC is a settlement inhabitant. Dead NPCs stay in the collection with
// Alive=false and are excluded from aggregates (soft delete).
type NPC struct {
	ID   string
	Role string

	Happiness float64 // [0,100]
	Alive     bool
	Working   bool

	// AssignedBuilding is the id of the building this NPC works at, or
	// empty. The NPC holds the association; buildings keep a worker list
	// for slot accounting only.
	AssignedBuilding string

	FoodRate float64 // food consumed per tick
	SkillMul float64 // production factor contributed when working

	StarveStreak int
	DiedTick     uint64
}

// Configuration errors, signaled synchronously at the offending call.
var (
	ErrDuplicateBuilding   = errors.New("building id already exists")
	ErrUnknownBuildingType = errors.New("unknown building type")
	ErrUnknownBuilding     = errors.New("no such building")
	ErrUnknownRole         = errors.New("unknown npc role")
	ErrNoFreeSlot          = errors.New("building has no free worker slot")
	ErrDeadNPC             = errors.New("npc is dead")
)

// Config holds core numeric parameters. Values come from tuning.yaml via
// the scenario builder; DefaultConfig matches the shipped tuning.
type Config struct {
	HardMultiplierCap     float64 // composite production multiplier ceiling
	MoraleMultiplierFloor float64 // morale-derived multiplier floor

	NeutralHappiness float64 // assumed average for an empty settlement
	StartHappiness   float64 // happiness of freshly created NPCs
	HappinessStep    float64 // fraction of (target-current) applied per tick

	StarvationDeathTicks int // consecutive underfed ticks before death

	MoraleFoodHorizonTicks float64 // ticks of stocked food considered "enough"
	ExpansionMoraleBonus   float64 // morale points per completed expansion

	TechMultiplier float64 // settlement-wide technology production factor
}

func DefaultConfig() Config {
	return Config{
		HardMultiplierCap:      2.0,
		MoraleMultiplierFloor:  0.25,
		NeutralHappiness:       50,
		StartHappiness:         75,
		HappinessStep:          0.25,
		StarvationDeathTicks:   10,
		MoraleFoodHorizonTicks: 10,
		ExpansionMoraleBonus:   5,
		TechMultiplier:         1.0,
	}
}

// ValidateCatalogs cross-checks catalog content against the closed
// resource enum so bad config fails at load, not mid-run.
func ValidateCatalogs(cats *catalogs.Catalogs) error {
	if cats == nil {
		return errors.New("nil catalogs")
	}
	for _, name := range cats.Resources.Palette {
		if _, ok := ParseResource(name); !ok {
			return fmt.Errorf("resources.json: unknown resource %q", name)
		}
	}
	for _, id := range cats.Buildings.Order {
		def := cats.Buildings.ByID[id]
		for res, rate := range def.Rates {
			if _, ok := ParseResource(res); !ok {
				return fmt.Errorf("buildings.json: %s: unknown resource %q", id, res)
			}
			if rate < 0 {
				return fmt.Errorf("buildings.json: %s: negative rate for %s", id, res)
			}
		}
		if !def.Passive && def.WorkerSlots <= 0 && len(def.Rates) > 0 {
			return fmt.Errorf("buildings.json: %s: producing type needs worker slots or passive", id)
		}
		if def.Aura != nil && (def.Aura.Radius <= 0 || def.Aura.Bonus <= 0) {
			return fmt.Errorf("buildings.json: %s: aura needs positive radius and bonus", id)
		}
	}
	for _, id := range cats.Roles.Order {
		def := cats.Roles.ByID[id]
		if def.FoodPerTick < 0 {
			return fmt.Errorf("roles.json: %s: negative food rate", id)
		}
		if def.SkillMultiplier <= 0 {
			return fmt.Errorf("roles.json: %s: skill multiplier must be positive", id)
		}
	}
	return nil
}
