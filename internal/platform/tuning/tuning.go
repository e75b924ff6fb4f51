// Package tuning holds every numeric constant of the simulation in one place.
// Constants can be overridden from a YAML file; the compiled defaults are the
// values the balance tests assume.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	GridSize       int `yaml:"grid_size"`
	TickDurationMs int `yaml:"tick_duration_ms"`

	Heat HeatTuning `yaml:"heat"`

	Power PowerTuning `yaml:"power"`

	Economy EconomyTuning `yaml:"economy"`
}

// HeatTuning controls generation and diffusion.
type HeatTuning struct {
	// TransferRate is the fraction of the pairwise heat difference that
	// moves per tick. Stability requires TransferRate * 4 < 1 so a cell
	// can never give away more heat than it holds in one batch.
	TransferRate     float64 `yaml:"transfer_rate"`
	BaseConductivity float64 `yaml:"base_conductivity"`
	FuelRodOutput    float64 `yaml:"fuel_rod_output"`
	VentilatorSink   float64 `yaml:"ventilator_sink"`
	ExchangerRate    float64 `yaml:"exchanger_rate"`
}

// PowerTuning controls the heat-to-power conversion curve.
type PowerTuning struct {
	TurbineRate    float64 `yaml:"turbine_rate"`
	TurbineKnee    float64 `yaml:"turbine_knee"`
	TurbineMaxDraw float64 `yaml:"turbine_max_draw"`
	SubstationCap  float64 `yaml:"substation_cap"`
	MoneyPerPower  float64 `yaml:"money_per_power"`
}

// EconomyTuning controls prices, refunds and tier progression.
type EconomyTuning struct {
	StartingMoney  int64   `yaml:"starting_money"`
	RefundPercent  int     `yaml:"refund_percent"`
	TierMultiplier float64 `yaml:"tier_multiplier"`
	// TierThresholds are lifetime-earnings milestones; crossing the Nth
	// threshold advances the plant to tier N+1.
	TierThresholds []int64 `yaml:"tier_thresholds"`

	BaseCosts BaseCosts `yaml:"base_costs"`
}

// BaseCosts are tier-0 build prices per structure type.
type BaseCosts struct {
	FuelRod       int64 `yaml:"fuel_rod"`
	Ventilator    int64 `yaml:"ventilator"`
	HeatExchanger int64 `yaml:"heat_exchanger"`
	Insulator     int64 `yaml:"insulator"`
	Turbine       int64 `yaml:"turbine"`
	Substation    int64 `yaml:"substation"`
}

// Default returns the compiled-in balance values.
func Default() Tuning {
	return Tuning{
		GridSize:       16,
		TickDurationMs: 250,
		Heat: HeatTuning{
			TransferRate:     0.12,
			BaseConductivity: 1.0,
			FuelRodOutput:    10.0,
			VentilatorSink:   6.0,
			ExchangerRate:    0.5,
		},
		Power: PowerTuning{
			TurbineRate:    2.0,
			TurbineKnee:    20.0,
			TurbineMaxDraw: 40.0,
			SubstationCap:  50.0,
			MoneyPerPower:  0.25,
		},
		Economy: EconomyTuning{
			StartingMoney:  100,
			RefundPercent:  75,
			TierMultiplier: 1.5,
			TierThresholds: []int64{500, 2500, 10000},
			BaseCosts: BaseCosts{
				FuelRod:       10,
				Ventilator:    10,
				HeatExchanger: 15,
				Insulator:     5,
				Turbine:       25,
				Substation:    20,
			},
		},
	}
}

// Load reads a tuning file and overlays it on the defaults, so a partial
// file only overrides what it names.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate rejects values that would destabilize the diffusion batch or
// break money invariants.
func (t Tuning) Validate() error {
	if t.GridSize < 1 {
		return fmt.Errorf("tuning: grid_size must be >= 1, got %d", t.GridSize)
	}
	if t.Heat.TransferRate <= 0 || t.Heat.TransferRate*4 >= 1 {
		return fmt.Errorf("tuning: transfer_rate %.3f outside stable range (0, 0.25)", t.Heat.TransferRate)
	}
	if t.Economy.RefundPercent < 0 || t.Economy.RefundPercent > 100 {
		return fmt.Errorf("tuning: refund_percent %d outside [0,100]", t.Economy.RefundPercent)
	}
	if t.Power.TurbineMaxDraw < t.Power.TurbineKnee {
		return fmt.Errorf("tuning: turbine_max_draw %.1f below turbine_knee %.1f", t.Power.TurbineMaxDraw, t.Power.TurbineKnee)
	}
	return nil
}
