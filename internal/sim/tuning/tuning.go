package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickDurationMs int `yaml:"tick_duration_ms"`

	HardMultiplierCap     float64 `yaml:"hard_multiplier_cap"`
	MoraleMultiplierFloor float64 `yaml:"morale_multiplier_floor"`

	NeutralHappiness float64 `yaml:"neutral_happiness"`
	StartHappiness   float64 `yaml:"start_happiness"`
	HappinessStep    float64 `yaml:"happiness_step"`

	StarvationDeathTicks   int     `yaml:"starvation_death_ticks"`
	MoraleFoodHorizonTicks float64 `yaml:"morale_food_horizon_ticks"`
	ExpansionMoraleBonus   float64 `yaml:"expansion_morale_bonus"`

	Observer ObserverLimits `yaml:"observer"`
}

type ObserverLimits struct {
	MaxSessions int `yaml:"max_sessions"`
	SendBuffer  int `yaml:"send_buffer"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickDurationMs <= 0 {
		return fmt.Errorf("tick_duration_ms must be positive")
	}
	if t.HardMultiplierCap <= 0 {
		return fmt.Errorf("hard_multiplier_cap must be positive")
	}
	if t.MoraleMultiplierFloor < 0 || t.MoraleMultiplierFloor > t.HardMultiplierCap {
		return fmt.Errorf("morale_multiplier_floor must be in [0, hard_multiplier_cap]")
	}
	if t.HappinessStep <= 0 || t.HappinessStep > 1 {
		return fmt.Errorf("happiness_step must be in (0, 1]")
	}
	if t.StarvationDeathTicks <= 0 {
		return fmt.Errorf("starvation_death_ticks must be positive")
	}
	if t.MoraleFoodHorizonTicks <= 0 {
		return fmt.Errorf("morale_food_horizon_ticks must be positive")
	}
	return nil
}
