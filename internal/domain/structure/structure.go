// Package structure defines the core domain entities for buildable plant
// structures. This package is PURE and must NOT import any infrastructure
// packages.
package structure

import (
	"math"

	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
)

// Type represents the kind of structure occupying a cell.
type Type string

const (
	TypeFuelRod       Type = "FUEL_ROD"       // Heat source, fixed output per tick
	TypeVentilator    Type = "VENTILATOR"     // Heat sink, removes heat from its own cell
	TypeHeatExchanger Type = "HEAT_EXCHANGER" // Heat mover, equalizes with its hottest neighbor
	TypeInsulator     Type = "INSULATOR"      // Heat blocker, zero conductivity wall
	TypeTurbine       Type = "TURBINE"        // Heat-to-power converter
	TypeSubstation    Type = "SUBSTATION"     // Power-to-money converter
)

// AllTypes lists every buildable type in catalog order.
var AllTypes = []Type{
	TypeFuelRod,
	TypeVentilator,
	TypeHeatExchanger,
	TypeInsulator,
	TypeTurbine,
	TypeSubstation,
}

// IsValid reports whether t names a known structure type.
func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Structure is a placed instance. It is owned exclusively by its cell;
// removing the cell's occupant destroys it.
type Structure struct {
	Type Type `json:"type"`
	// PaidCost is the catalog price at build time. The demolish refund is
	// computed from this, never from the current catalog price.
	PaidCost int64 `json:"paid_cost"`
}

// Definition provides the static per-type behavior parameters.
type Definition struct {
	Name string

	BaseCost int64

	// Heat behavior.
	HeatPerTick  float64 // FuelRod output
	SinkPerTick  float64 // Ventilator removal
	ExchangeRate float64 // HeatExchanger equalization fraction
	Conductivity float64 // 0 for Insulator, halts diffusion entirely
	Insulating   bool

	// Power behavior.
	TurbineRate    float64 // power per unit heat below the knee
	TurbineKnee    float64 // heat draw above which returns diminish
	TurbineMaxDraw float64 // hard cap on heat drawn per tick
	SubstationCap  float64 // max power accepted per tick
	MoneyPerPower  float64
}

// Catalog is the immutable type → definition table. Behavior dispatch is
// keyed by the type tag, not by interfaces.
type Catalog struct {
	defs           map[Type]Definition
	tierMultiplier float64
	refundPercent  int
}

// NewCatalog builds the catalog from tuning values.
func NewCatalog(t tuning.Tuning) *Catalog {
	defs := map[Type]Definition{
		TypeFuelRod: {
			Name:         "Fuel Rod",
			BaseCost:     t.Economy.BaseCosts.FuelRod,
			HeatPerTick:  t.Heat.FuelRodOutput,
			Conductivity: t.Heat.BaseConductivity,
		},
		TypeVentilator: {
			Name:         "Ventilator",
			BaseCost:     t.Economy.BaseCosts.Ventilator,
			SinkPerTick:  t.Heat.VentilatorSink,
			Conductivity: t.Heat.BaseConductivity,
		},
		TypeHeatExchanger: {
			Name:         "Heat Exchanger",
			BaseCost:     t.Economy.BaseCosts.HeatExchanger,
			ExchangeRate: t.Heat.ExchangerRate,
			Conductivity: t.Heat.BaseConductivity,
		},
		TypeInsulator: {
			Name:         "Insulator",
			BaseCost:     t.Economy.BaseCosts.Insulator,
			Conductivity: 0,
			Insulating:   true,
		},
		TypeTurbine: {
			Name:           "Turbine",
			BaseCost:       t.Economy.BaseCosts.Turbine,
			Conductivity:   t.Heat.BaseConductivity,
			TurbineRate:    t.Power.TurbineRate,
			TurbineKnee:    t.Power.TurbineKnee,
			TurbineMaxDraw: t.Power.TurbineMaxDraw,
		},
		TypeSubstation: {
			Name:          "Substation",
			BaseCost:      t.Economy.BaseCosts.Substation,
			Conductivity:  t.Heat.BaseConductivity,
			SubstationCap: t.Power.SubstationCap,
			MoneyPerPower: t.Power.MoneyPerPower,
		},
	}
	return &Catalog{
		defs:           defs,
		tierMultiplier: t.Economy.TierMultiplier,
		refundPercent:  t.Economy.RefundPercent,
	}
}

// Definition returns the static parameters for a type. The zero Definition
// is returned for unknown types; callers validate the type first.
func (c *Catalog) Definition(t Type) Definition {
	return c.defs[t]
}

// BuildCost returns the price of a type at the given tech tier.
// Prices scale as base * multiplier^tier, floor-rounded.
func (c *Catalog) BuildCost(t Type, tier int) int64 {
	def, ok := c.defs[t]
	if !ok {
		return 0
	}
	if tier <= 0 {
		return def.BaseCost
	}
	scaled := float64(def.BaseCost) * math.Pow(c.tierMultiplier, float64(tier))
	return int64(math.Floor(scaled))
}

// Refund returns the demolish credit for a structure: RefundPercent of the
// price originally paid, floor-rounded. Later catalog price changes never
// retroactively change refunds.
func (c *Catalog) Refund(s *Structure) int64 {
	if s == nil {
		return 0
	}
	return s.PaidCost * int64(c.refundPercent) / 100
}
