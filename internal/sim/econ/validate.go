package econ

import "fmt"

// foodEpsilon tolerates float drift when checking the non-negative food
// invariant; anything beyond it is a real accounting bug.
const foodEpsilon = 1e-9

// ValidateBalance is a post-run oracle over the tick history, not part
// of the simulation loop. It returns pass/fail plus human-readable
// issue strings for the reporting layer.
func (s *Simulator) ValidateBalance() (bool, []string) {
	var issues []string

	if len(s.history) == 0 {
		return false, []string{"no ticks were executed"}
	}

	for _, rec := range s.history {
		if rec.Stock[ResourceFood] < -foodEpsilon {
			issues = append(issues, fmt.Sprintf("tick %d: food went negative (%.6f)", rec.Tick, rec.Stock[ResourceFood]))
		}
		if rec.Morale.TownMorale < -100 || rec.Morale.TownMorale > 100 {
			issues = append(issues, fmt.Sprintf("tick %d: morale out of band (%.2f)", rec.Tick, rec.Morale.TownMorale))
		}
		if rec.Morale.ProductionMultiplier < 0 || rec.Morale.ProductionMultiplier > s.cfg.HardMultiplierCap {
			issues = append(issues, fmt.Sprintf("tick %d: morale multiplier outside [0, %.2f] (%.4f)",
				rec.Tick, s.cfg.HardMultiplierCap, rec.Morale.ProductionMultiplier))
		}
		if rec.AvgHappiness < 0 || rec.AvgHappiness > 100 {
			issues = append(issues, fmt.Sprintf("tick %d: average happiness out of bounds (%.2f)", rec.Tick, rec.AvgHappiness))
		}
	}

	for _, n := range s.Consumption.NPCs() {
		if n.Happiness < 0 || n.Happiness > 100 {
			issues = append(issues, fmt.Sprintf("npc %s: happiness out of bounds (%.2f)", n.ID, n.Happiness))
		}
	}

	if s.Consumption.AliveCount() == 0 {
		issues = append(issues, "no NPC survived the run")
	}

	return len(issues) == 0, issues
}
