package engine

import (
	"github.com/dvaldano/heatworks/server/internal/domain/grid"
	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
)

// DiffusionSystem redistributes heat across the grid each tick. It runs in
// distinct phases so iteration order never affects the result:
//
//  1. Generation: every fuel rod injects its fixed heat.
//  2. Diffusion: pairwise flows computed from the frozen pre-phase heats,
//     applied as a single delta batch. Conserving.
//  3. Exchangers: each equalizes against its hottest reachable neighbor.
//     Conserving.
//  4. Ventilators: each sinks a fixed amount from its own cell.
type DiffusionSystem struct {
	catalog      *structure.Catalog
	transferRate float64
	baseCond     float64
}

// NewDiffusionSystem creates the heat propagation pass.
func NewDiffusionSystem(catalog *structure.Catalog, heat tuning.HeatTuning) *DiffusionSystem {
	return &DiffusionSystem{
		catalog:      catalog,
		transferRate: heat.TransferRate,
		baseCond:     heat.BaseConductivity,
	}
}

// conductivity of a cell: empty cells conduct at the base rate, occupied
// cells at their structure's rate. An insulator conducts nothing.
func (ds *DiffusionSystem) conductivity(c *grid.Cell) float64 {
	if c.Occupant == nil {
		return ds.baseCond
	}
	return ds.catalog.Definition(c.Occupant.Type).Conductivity
}

// Run executes all heat phases for one tick.
func (ds *DiffusionSystem) Run(g *grid.Grid) {
	ds.generate(g)
	ds.diffuse(g)
	ds.exchange(g)
	ds.ventilate(g)
}

func (ds *DiffusionSystem) generate(g *grid.Grid) {
	g.EachCell(func(c *grid.Cell) {
		if c.Occupant != nil && c.Occupant.Type == structure.TypeFuelRod {
			// Capped constant output, independent of neighbors.
			c.Heat += ds.catalog.Definition(structure.TypeFuelRod).HeatPerTick
		}
	})
}

// diffuse stages a flow for every orthogonal pair exactly once (right and
// down neighbor of each cell) and commits the whole batch afterwards, so
// every flow reads pre-phase heat values.
func (ds *DiffusionSystem) diffuse(g *grid.Grid) {
	size := g.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			a, _ := g.CellAt(x, y)
			if x+1 < size {
				b, _ := g.CellAt(x+1, y)
				ds.stageFlow(a, b)
			}
			if y+1 < size {
				b, _ := g.CellAt(x, y+1)
				ds.stageFlow(a, b)
			}
		}
	}
	g.ApplyDeltas()
}

// stageFlow moves heat down the gradient between two adjacent cells. The
// flow is proportional to the heat difference and the lower of the two
// conductivities; an insulator on either side halts it entirely.
func (ds *DiffusionSystem) stageFlow(a, b *grid.Cell) {
	cond := ds.conductivity(a)
	if cb := ds.conductivity(b); cb < cond {
		cond = cb
	}
	if cond <= 0 {
		return
	}
	flow := ds.transferRate * cond * (a.Heat - b.Heat)
	a.AddDelta(-flow)
	b.AddDelta(flow)
}

// exchange runs each heat exchanger against its most-heated non-insulated
// orthogonal neighbor, moving a fixed fraction of the way to equalization.
// Heat is neither created nor destroyed here.
func (ds *DiffusionSystem) exchange(g *grid.Grid) {
	var scratch [4]*grid.Cell
	g.EachCell(func(c *grid.Cell) {
		if c.Occupant == nil || c.Occupant.Type != structure.TypeHeatExchanger {
			return
		}
		rate := ds.catalog.Definition(structure.TypeHeatExchanger).ExchangeRate

		neighbors := g.Neighbors(c.X, c.Y, scratch[:0])
		var partner *grid.Cell
		var bestDiff float64
		for _, n := range neighbors {
			if ds.conductivity(n) <= 0 {
				continue
			}
			diff := n.Heat - c.Heat
			if diff < 0 {
				diff = -diff
			}
			if partner == nil || diff > bestDiff {
				partner = n
				bestDiff = diff
			}
		}
		if partner == nil {
			return
		}

		// Move rate/2 of the difference each way: rate=1 equalizes fully.
		shift := rate * (partner.Heat - c.Heat) / 2
		c.Heat += shift
		partner.Heat -= shift
	})
}

func (ds *DiffusionSystem) ventilate(g *grid.Grid) {
	g.EachCell(func(c *grid.Cell) {
		if c.Occupant == nil || c.Occupant.Type != structure.TypeVentilator {
			return
		}
		sink := ds.catalog.Definition(structure.TypeVentilator).SinkPerTick
		c.Heat -= sink
		if c.Heat < 0 {
			c.Heat = 0
		}
	})
}
