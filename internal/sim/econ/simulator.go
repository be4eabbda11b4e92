package econ

import (
	"hearthstead.gg/internal/sim/catalogs"
)

// RunState is the simulator lifecycle. The only early exit is the
// no-survivors halt, which is a normal outcome, not a failure.
type RunState uint8

const (
	RunNotStarted RunState = iota
	RunRunning
	RunCompleted
	RunHaltedNoSurvivors
)

func (s RunState) String() string {
	switch s {
	case RunNotStarted:
		return "NOT_STARTED"
	case RunRunning:
		return "RUNNING"
	case RunCompleted:
		return "COMPLETED"
	case RunHaltedNoSurvivors:
		return "HALTED_NO_SURVIVORS"
	}
	return "UNKNOWN"
}

// TickRecord is an append-only snapshot captured after one tick's
// processing. Reporting and validation only; never read back into
// simulation state.
type TickRecord struct {
	Tick uint64 `json:"tick"`

	Stock    Stockpile `json:"-"`
	Capacity float64   `json:"capacity"`

	Morale MoraleState `json:"morale"`

	Alive        int     `json:"alive"`
	Working      int     `json:"working"`
	AvgHappiness float64 `json:"avg_happiness"`

	Produced  Stockpile `json:"-"`
	Consumed  float64   `json:"consumed"`
	Shortfall float64   `json:"shortfall"`
	Deaths    []string  `json:"deaths,omitempty"`

	Overflow bool    `json:"overflow"`
	Overage  float64 `json:"overage,omitempty"`

	Digest string `json:"digest"`
}

// TickLogger receives each record as it is appended. Implemented by
// internal/persistence; may be nil.
type TickLogger interface {
	WriteTick(rec TickRecord) error
}

// Simulator wires morale, production and consumption into the fixed
// per-tick sequence and keeps the run history.
type Simulator struct {
	cfg Config

	Production  *ProductionSystem
	Consumption *ConsumptionSystem

	ledger *Ledger

	expansions int

	state   RunState
	tick    uint64
	history []TickRecord

	tickLogger TickLogger
}

func NewSimulator(cfg Config, cats *catalogs.Catalogs) *Simulator {
	ledger := &Ledger{}
	return &Simulator{
		cfg:         cfg,
		ledger:      ledger,
		Production:  NewProductionSystem(cfg, cats, ledger),
		Consumption: NewConsumptionSystem(cfg, cats),
	}
}

func (s *Simulator) Ledger() *Ledger          { return s.ledger }
func (s *Simulator) State() RunState          { return s.state }
func (s *Simulator) CurrentTick() uint64      { return s.tick }
func (s *Simulator) History() []TickRecord    { return s.history }
func (s *Simulator) SetExpansions(n int)      { s.expansions = n }
func (s *Simulator) SetTickLogger(l TickLogger) { s.tickLogger = l }

// Step processes exactly one tick and appends its record. The order is
// fixed: morale is computed from a snapshot taken before any mutation
// this tick, so all feedback is one tick delayed by construction.
func (s *Simulator) Step() TickRecord {
	if s.state == RunNotStarted {
		s.state = RunRunning
	}
	if s.state != RunRunning {
		if len(s.history) > 0 {
			return s.history[len(s.history)-1]
		}
		return TickRecord{}
	}
	s.tick++

	// 1. Morale from the previous tick's state.
	morale := ComputeMorale(s.moraleSnapshot(), s.cfg)

	// 2. Production against that morale.
	prod := s.Production.ExecuteProductionTick(morale.ProductionMultiplier)

	// 3. Consumption against the post-production food pool.
	remaining, cons := s.Consumption.ApplyConsumptionTick(s.ledger.Stock[ResourceFood], s.tick)
	s.ledger.Stock[ResourceFood] = remaining

	// 4. Happiness from the post-consumption ledger.
	perCapita := 0.0
	if alive := s.Consumption.AliveCount(); alive > 0 {
		perCapita = s.ledger.Stock[ResourceFood] / float64(alive)
	}
	s.Consumption.UpdateHappiness(perCapita)

	// 5. Storage overflow is reported, not corrected.
	overflow, overage := s.Production.CheckStorageOverflow()

	// 6. Record, then halt if nobody survived.
	rec := TickRecord{
		Tick:         s.tick,
		Stock:        s.ledger.Stock,
		Capacity:     s.ledger.Capacity,
		Morale:       morale,
		Alive:        s.Consumption.AliveCount(),
		Working:      s.Consumption.WorkingCount(),
		AvgHappiness: s.avgHappiness(),
		Produced:     prod.Produced,
		Consumed:     cons.Consumed,
		Shortfall:    cons.Shortfall,
		Deaths:       cons.Deaths,
		Overflow:     overflow,
		Overage:      overage,
	}
	rec.Digest = s.stateDigest()
	s.history = append(s.history, rec)

	if s.tickLogger != nil {
		_ = s.tickLogger.WriteTick(rec)
	}

	if rec.Alive == 0 {
		s.state = RunHaltedNoSurvivors
	}
	return rec
}

// Run executes up to tickCount ticks and returns the final state:
// COMPLETED, or HALTED_NO_SURVIVORS on early exit.
func (s *Simulator) Run(tickCount int) RunState {
	for i := 0; i < tickCount; i++ {
		s.Step()
		if s.state != RunRunning {
			return s.state
		}
	}
	if s.state == RunRunning {
		s.state = RunCompleted
	}
	return s.state
}

// Finish marks a still-running simulation completed. Hosts driving Step
// directly call this once they stop ticking.
func (s *Simulator) Finish() {
	if s.state == RunRunning {
		s.state = RunCompleted
	}
}

// FinalState returns the last tick record, false before any tick ran.
func (s *Simulator) FinalState() (TickRecord, bool) {
	if len(s.history) == 0 {
		return TickRecord{}, false
	}
	return s.history[len(s.history)-1], true
}

func (s *Simulator) moraleSnapshot() MoraleInputs {
	alive := s.Consumption.Alive()
	happiness := make([]float64, len(alive))
	for i, n := range alive {
		happiness[i] = n.Happiness
	}
	return MoraleInputs{
		AliveHappiness:  happiness,
		FoodStock:       s.ledger.Stock[ResourceFood],
		PerCapitaNeed:   s.Consumption.PerCapitaNeed(),
		HousingCapacity: s.Production.HousingCapacity(),
		Expansions:      s.expansions,
	}
}

func (s *Simulator) avgHappiness() float64 {
	sum := 0.0
	pop := 0
	for _, n := range s.Consumption.NPCs() {
		if n.Alive {
			sum += n.Happiness
			pop++
		}
	}
	if pop == 0 {
		return 0
	}
	return sum / float64(pop)
}

// Summary aggregates a finished (or halted) run for reporting.
type Summary struct {
	State         string             `json:"state"`
	Ticks         int                `json:"ticks"`
	FinalStock    map[string]float64 `json:"final_stock"`
	Produced      map[string]float64 `json:"produced_total"`
	Consumed      float64            `json:"consumed_total"`
	Shortfall     float64            `json:"shortfall_total"`
	Deaths        int                `json:"deaths"`
	Survivors     int                `json:"survivors"`
	FinalMorale   float64            `json:"final_morale"`
	MoraleLabel   string             `json:"morale_label"`
	OverflowTicks int                `json:"overflow_ticks"`
}

func (s *Simulator) Summarize() Summary {
	sum := Summary{
		State:     s.state.String(),
		Ticks:     len(s.history),
		Survivors: s.Consumption.AliveCount(),
	}
	var produced Stockpile
	for _, rec := range s.history {
		for r := Resource(0); r < NumResources; r++ {
			produced[r] += rec.Produced[r]
		}
		sum.Consumed += rec.Consumed
		sum.Shortfall += rec.Shortfall
		sum.Deaths += len(rec.Deaths)
		if rec.Overflow {
			sum.OverflowTicks++
		}
	}
	sum.Produced = produced.Map()
	sum.FinalStock = s.ledger.Stock.Map()
	if rec, ok := s.FinalState(); ok {
		sum.FinalMorale = rec.Morale.TownMorale
		sum.MoraleLabel = rec.Morale.Label
	}
	return sum
}
