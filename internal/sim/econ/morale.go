package econ

// MoraleState is recomputed from scratch every tick; it carries no state
// of its own between ticks.
type MoraleState struct {
	TownMorale           float64 `json:"town_morale"`            // [-100,100]
	ProductionMultiplier float64 `json:"production_multiplier"`  // [floor, hard cap]
	Label                string  `json:"label"`
}

// MoraleInputs is an immutable snapshot of the previous tick's state.
// Passing a snapshot (not live registries) enforces the one-tick-delayed
// feedback contract at the interface.
type MoraleInputs struct {
	AliveHappiness  []float64 // happiness of each alive NPC
	FoodStock       float64
	PerCapitaNeed   float64 // summed food rate / alive count
	HousingCapacity int
	Expansions      int
}

// Component weights. Happiness dominates; expansion is a small nudge.
const (
	moraleWeightHappiness = 0.4
	moraleWeightFood      = 0.3
	moraleWeightHousing   = 0.2
	moraleWeightExpansion = 0.1
)

// ComputeMorale derives town morale and the production multiplier from a
// snapshot. Pure: no registry or ledger mutation.
func ComputeMorale(in MoraleInputs, cfg Config) MoraleState {
	pop := len(in.AliveHappiness)

	// An empty settlement is not an error: assume the neutral baseline.
	avgHappiness := cfg.NeutralHappiness
	if pop > 0 {
		sum := 0.0
		for _, h := range in.AliveHappiness {
			sum += h
		}
		avgHappiness = sum / float64(pop)
	}
	happinessScore := clampSigned((avgHappiness - 50) * 2)

	// Food sufficiency: stocked food measured against a horizon of ticks
	// at the current per-capita burn rate. 1.0 buffer = neutral.
	foodScore := 0.0
	if pop > 0 && in.PerCapitaNeed > 0 {
		needed := in.PerCapitaNeed * float64(pop) * cfg.MoraleFoodHorizonTicks
		sufficiency := in.FoodStock / needed
		foodScore = clampSigned((sufficiency - 1) * 100)
	}

	// Housing: full occupancy is neutral, spare housing lifts morale,
	// overcrowding drags it down. No housing at all counts as fully
	// overcrowded while anyone is alive.
	housingScore := 0.0
	if pop > 0 {
		if in.HousingCapacity <= 0 {
			housingScore = -100
		} else {
			occupancy := float64(pop) / float64(in.HousingCapacity)
			housingScore = clampSigned((1 - occupancy) * 100)
		}
	}

	expansionScore := clampSigned(float64(in.Expansions) * cfg.ExpansionMoraleBonus)
	if expansionScore < 0 {
		expansionScore = 0
	}

	morale := clampSigned(moraleWeightHappiness*happinessScore +
		moraleWeightFood*foodScore +
		moraleWeightHousing*housingScore +
		moraleWeightExpansion*expansionScore)

	return MoraleState{
		TownMorale:           morale,
		ProductionMultiplier: moraleMultiplier(morale, cfg),
		Label:                moraleLabel(morale),
	}
}

// moraleMultiplier maps morale linearly onto [floor, cap]. Monotone
// non-decreasing, never negative, never above the hard cap the
// production stacking clamp also uses.
func moraleMultiplier(morale float64, cfg Config) float64 {
	floor := cfg.MoraleMultiplierFloor
	cap := cfg.HardMultiplierCap
	if floor < 0 {
		floor = 0
	}
	if cap < floor {
		cap = floor
	}
	mul := floor + (morale+100)/200*(cap-floor)
	if mul < floor {
		mul = floor
	}
	if mul > cap {
		mul = cap
	}
	return mul
}

func moraleLabel(morale float64) string {
	switch {
	case morale >= 60:
		return "thriving"
	case morale >= 20:
		return "content"
	case morale >= -20:
		return "steady"
	case morale >= -60:
		return "discontent"
	default:
		return "desperate"
	}
}

func clampSigned(v float64) float64 {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}
