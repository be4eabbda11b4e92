package econ

import (
	"fmt"

	"hearthstead.gg/internal/sim/catalogs"
)

// ConsumptionSystem owns the NPC registry. It deducts food from a pool
// it is handed (the ledger stays with production) and tracks per-NPC
// happiness and survival.
type ConsumptionSystem struct {
	cfg  Config
	cats *catalogs.Catalogs

	npcs    []*NPC
	nextNum int
}

// ConsumptionLog reports one tick's food accounting. Shortfall is a
// first-class simulated outcome, never an error.
type ConsumptionLog struct {
	Required  float64
	Consumed  float64
	Shortfall float64
	Deaths    []string // ids of NPCs that starved this tick
}

func NewConsumptionSystem(cfg Config, cats *catalogs.Catalogs) *ConsumptionSystem {
	return &ConsumptionSystem{cfg: cfg, cats: cats}
}

// CreateNPC instantiates an NPC with its role's consumption rate and
// skill factor. IDs are sequential, so identical scenarios replay with
// identical ids.
func (cs *ConsumptionSystem) CreateNPC(role string) (*NPC, error) {
	def, ok := cs.cats.Roles.ByID[role]
	if !ok {
		return nil, ErrUnknownRole
	}
	cs.nextNum++
	n := &NPC{
		ID:        fmt.Sprintf("N%d", cs.nextNum),
		Role:      role,
		Happiness: cs.cfg.StartHappiness,
		Alive:     true,
		FoodRate:  def.FoodPerTick,
		SkillMul:  def.SkillMultiplier,
	}
	cs.npcs = append(cs.npcs, n)
	return n, nil
}

// NPCs returns the underlying collection, dead entries included.
func (cs *ConsumptionSystem) NPCs() []*NPC { return cs.npcs }

// Alive returns the filtered view of living NPCs.
func (cs *ConsumptionSystem) Alive() []*NPC {
	out := make([]*NPC, 0, len(cs.npcs))
	for _, n := range cs.npcs {
		if n.Alive {
			out = append(out, n)
		}
	}
	return out
}

func (cs *ConsumptionSystem) AliveCount() int {
	c := 0
	for _, n := range cs.npcs {
		if n.Alive {
			c++
		}
	}
	return c
}

func (cs *ConsumptionSystem) WorkingCount() int {
	c := 0
	for _, n := range cs.npcs {
		if n.Alive && n.Working {
			c++
		}
	}
	return c
}

// PerCapitaNeed is the average food rate across alive NPCs, 0 if none.
func (cs *ConsumptionSystem) PerCapitaNeed() float64 {
	sum := 0.0
	pop := 0
	for _, n := range cs.npcs {
		if n.Alive {
			sum += n.FoodRate
			pop++
		}
	}
	if pop == 0 {
		return 0
	}
	return sum / float64(pop)
}

// ApplyConsumptionTick deducts up to the available food. Under shortage
// every alive NPC takes the same proportional cut (equal per-capita
// shortfall) and accrues a starvation streak; a fully fed tick resets
// the streak. An NPC whose streak reaches the death threshold dies:
// alive=false, irreversible, excluded from later aggregates but kept in
// the collection. Food is never driven below zero.
func (cs *ConsumptionSystem) ApplyConsumptionTick(foodAvailable float64, nowTick uint64) (float64, ConsumptionLog) {
	var log ConsumptionLog

	for _, n := range cs.npcs {
		if n.Alive {
			log.Required += n.FoodRate
		}
	}
	if log.Required <= 0 {
		return foodAvailable, log
	}

	ratio := 1.0
	if foodAvailable < log.Required {
		ratio = foodAvailable / log.Required
		if ratio < 0 {
			ratio = 0
		}
		log.Shortfall = log.Required - foodAvailable
		if log.Shortfall > log.Required {
			log.Shortfall = log.Required
		}
	}

	for _, n := range cs.npcs {
		if !n.Alive {
			continue
		}
		log.Consumed += n.FoodRate * ratio
		if ratio < 1 {
			n.StarveStreak++
			if n.StarveStreak >= cs.cfg.StarvationDeathTicks {
				n.Alive = false
				n.Working = false
				n.DiedTick = nowTick
				log.Deaths = append(log.Deaths, n.ID)
			}
		} else {
			n.StarveStreak = 0
		}
	}

	remaining := foodAvailable - log.Consumed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, log
}

// UpdateHappiness nudges each alive NPC toward a food-sufficiency target
// and clamps to [0,100]. Called after consumption, so the per-capita
// figure reflects the post-consumption ledger.
func (cs *ConsumptionSystem) UpdateHappiness(foodPerCapita float64) {
	for _, n := range cs.npcs {
		if !n.Alive {
			continue
		}
		target := 50.0
		if n.FoodRate > 0 {
			sufficiency := foodPerCapita / n.FoodRate
			target = 50 + 50*(sufficiency-1)
		}
		if target < 0 {
			target = 0
		}
		if target > 100 {
			target = 100
		}
		n.Happiness += (target - n.Happiness) * cs.cfg.HappinessStep
		if n.Happiness < 0 {
			n.Happiness = 0
		}
		if n.Happiness > 100 {
			n.Happiness = 100
		}
	}
}
