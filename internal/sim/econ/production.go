package econ

import (
	"hearthstead.gg/internal/sim/catalogs"
)

// ProductionSystem owns the building registry and the shared ledger.
// Buildings are iterated in creation order so runs replay identically.
type ProductionSystem struct {
	cfg  Config
	cats *catalogs.Catalogs

	buildings map[string]*Building
	order     []string

	ledger *Ledger
}

// ProductionLog reports one tick's output before it hit the ledger.
type ProductionLog struct {
	Produced   Stockpile
	ByBuilding map[string]float64 // total units per producing building
	Capped     int                // buildings whose stacked multiplier hit the hard cap
}

func NewProductionSystem(cfg Config, cats *catalogs.Catalogs, ledger *Ledger) *ProductionSystem {
	return &ProductionSystem{
		cfg:       cfg,
		cats:      cats,
		buildings: map[string]*Building{},
		ledger:    ledger,
	}
}

func (ps *ProductionSystem) Ledger() *Ledger { return ps.ledger }

// CreateBuilding registers a building. Duplicate ids and unknown catalog
// types are synchronous errors the caller may abort or ignore on.
func (ps *ProductionSystem) CreateBuilding(id, typ string, pos Vec3i) (*Building, error) {
	if _, exists := ps.buildings[id]; exists {
		return nil, ErrDuplicateBuilding
	}
	def, ok := ps.cats.Buildings.ByID[typ]
	if !ok {
		return nil, ErrUnknownBuildingType
	}
	b := &Building{
		ID:      id,
		Type:    typ,
		Pos:     pos,
		Def:     def,
		ZoneMul: 1.0,
	}
	ps.buildings[id] = b
	ps.order = append(ps.order, id)
	return b, nil
}

// AssignNPC attaches a worker to a building slot.
func (ps *ProductionSystem) AssignNPC(n *NPC, buildingID string) error {
	b, ok := ps.buildings[buildingID]
	if !ok {
		return ErrUnknownBuilding
	}
	if !n.Alive {
		return ErrDeadNPC
	}
	if b.FreeSlots() <= 0 {
		return ErrNoFreeSlot
	}
	b.Workers = append(b.Workers, n)
	n.AssignedBuilding = buildingID
	n.Working = true
	return nil
}

func (ps *ProductionSystem) Building(id string) (*Building, bool) {
	b, ok := ps.buildings[id]
	return b, ok
}

func (ps *ProductionSystem) BuildingCount() int { return len(ps.order) }

// HousingCapacity sums housing across registered buildings.
func (ps *ProductionSystem) HousingCapacity() int {
	total := 0
	for _, id := range ps.order {
		total += ps.buildings[id].Def.Housing
	}
	return total
}

// ExecuteProductionTick advances every staffed building's output and adds
// it to the ledger. Multiplier stacking order is fixed: NPC skill, zone,
// aura, technology, morale, each multiplicative, with the composite capped at
// the hard cap no matter how many factors stack.
func (ps *ProductionSystem) ExecuteProductionTick(moraleMul float64) ProductionLog {
	log := ProductionLog{ByBuilding: map[string]float64{}}

	for _, id := range ps.order {
		b := ps.buildings[id]
		if b.Def.Rates == nil || !b.staffed() {
			continue
		}

		mul := b.skillMul() * b.ZoneMul * ps.auraMul(b) * ps.cfg.TechMultiplier * moraleMul
		if mul > ps.cfg.HardMultiplierCap {
			mul = ps.cfg.HardMultiplierCap
			log.Capped++
		}
		if mul < 0 {
			mul = 0
		}

		total := 0.0
		for r := Resource(0); r < NumResources; r++ {
			rate, ok := b.Def.Rates[r.String()]
			if !ok || rate == 0 {
				continue
			}
			out := rate * mul
			ps.ledger.Stock[r] += out
			log.Produced[r] += out
			total += out
		}
		if total > 0 {
			log.ByBuilding[id] = total
		}
	}
	return log
}

// CheckStorageOverflow compares summed stock to capacity. Reported, not
// corrected: discarding excess is a calling-layer policy.
func (ps *ProductionSystem) CheckStorageOverflow() (bool, float64) {
	if ps.ledger.Capacity <= 0 {
		return false, 0
	}
	total := ps.ledger.Total()
	if total > ps.ledger.Capacity {
		return true, total - ps.ledger.Capacity
	}
	return false, 0
}

// skillMul averages the skill factors of alive assigned workers. Passive
// or unworked buildings contribute a neutral 1.0.
func (b *Building) skillMul() float64 {
	sum := 0.0
	n := 0
	for _, w := range b.Workers {
		if w.Alive {
			sum += w.SkillMul
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

// auraMul returns the strongest applicable aura factor for b. The
// boundary is inclusive: distance == radius still qualifies. Same-type
// auras never stack; only the single best bonus applies.
func (ps *ProductionSystem) auraMul(b *Building) float64 {
	best := 1.0
	for _, id := range ps.order {
		src := ps.buildings[id]
		if src == b || src.Def.Aura == nil {
			continue
		}
		aura := src.Def.Aura
		if dist(b.Pos, src.Pos) <= aura.Radius {
			if f := 1 + aura.Bonus; f > best {
				best = f
			}
		}
	}
	return best
}
