package engine

import (
	"github.com/dvaldano/heatworks/server/internal/domain/economy"
	"github.com/dvaldano/heatworks/server/internal/domain/grid"
	"github.com/dvaldano/heatworks/server/internal/domain/structure"
)

// PowerReport summarizes one settlement pass.
type PowerReport struct {
	PowerProduced float64 `json:"power_produced"`
	PowerSold     float64 `json:"power_sold"`
	PowerLost     float64 `json:"power_lost"`
	TierAdvanced  bool    `json:"tier_advanced"`
}

// PowerSystem converts accumulated heat into power and power into money.
// It runs after diffusion: turbines drain their cell's heat into a
// plant-wide power pool, then substations drain the pool into the balance.
// Pool power nobody accepts is lost, never stored. The system reads tier as
// an input and never mutates it; tier progression lives in the economy.
type PowerSystem struct {
	catalog *structure.Catalog
}

// NewPowerSystem creates the heat-to-money settlement pass.
func NewPowerSystem(catalog *structure.Catalog) *PowerSystem {
	return &PowerSystem{catalog: catalog}
}

// turbinePower is the efficiency curve: linear up to the knee, half rate
// above it. Monotonic increasing, bounded by MaxDraw, never negative.
// Running a cell hot past the knee wastes half of the extra heat.
func turbinePower(def structure.Definition, draw float64) float64 {
	if draw <= 0 {
		return 0
	}
	if draw <= def.TurbineKnee {
		return def.TurbineRate * draw
	}
	return def.TurbineRate*def.TurbineKnee + 0.5*def.TurbineRate*(draw-def.TurbineKnee)
}

// Run executes the power and economy settlement for one tick.
func (ps *PowerSystem) Run(g *grid.Grid, eco *economy.Economy) PowerReport {
	var report PowerReport
	var pool float64

	g.EachCell(func(c *grid.Cell) {
		if c.Occupant == nil || c.Occupant.Type != structure.TypeTurbine {
			return
		}
		def := ps.catalog.Definition(structure.TypeTurbine)
		draw := c.Heat
		if draw > def.TurbineMaxDraw {
			draw = def.TurbineMaxDraw
		}
		if draw <= 0 {
			return
		}
		c.Heat -= draw
		pool += turbinePower(def, draw)
	})

	report.PowerProduced = pool
	eco.RecordProduction(pool)

	var sold, revenue float64
	g.EachCell(func(c *grid.Cell) {
		if c.Occupant == nil || c.Occupant.Type != structure.TypeSubstation {
			return
		}
		def := ps.catalog.Definition(structure.TypeSubstation)
		take := pool
		if take > def.SubstationCap {
			take = def.SubstationCap
		}
		if take <= 0 {
			return
		}
		pool -= take
		sold += take
		revenue += take * def.MoneyPerPower
	})

	report.PowerSold = sold
	report.PowerLost = pool // surplus nobody accepted
	report.TierAdvanced = eco.CreditEarnings(sold, revenue)
	return report
}
