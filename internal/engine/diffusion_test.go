package engine

import (
	"math"
	"testing"

	"github.com/dvaldano/heatworks/server/internal/domain/grid"
	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
)

func newDiffusion(t *testing.T) (*DiffusionSystem, tuning.Tuning) {
	t.Helper()
	tun := tuning.Default()
	cat := structure.NewCatalog(tun)
	return NewDiffusionSystem(cat, tun.Heat), tun
}

func TestDiffusionConservesHeat(t *testing.T) {
	ds, _ := newDiffusion(t)
	g := grid.New(8)

	// An uneven pile of heat and no sources or sinks anywhere.
	for i, heat := range []float64{100, 42.5, 7, 0.25} {
		c, _ := g.CellAt(i, i)
		c.Heat = heat
	}
	want := g.TotalHeat()

	for i := 0; i < 50; i++ {
		ds.Run(g)
	}

	if got := g.TotalHeat(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Diffusion must conserve heat with no sources or sinks: %.12f -> %.12f", want, got)
	}
}

func TestDiffusionFlowsDownGradient(t *testing.T) {
	ds, _ := newDiffusion(t)
	g := grid.New(3)

	hot, _ := g.CellAt(1, 1)
	hot.Heat = 100

	ds.diffuse(g)

	// Each of the 4 neighbors receives transfer_rate * diff from the frozen
	// pre-pass values; symmetry must be exact.
	var neighborHeats []float64
	for _, p := range [][2]int{{1, 0}, {0, 1}, {2, 1}, {1, 2}} {
		c, _ := g.CellAt(p[0], p[1])
		neighborHeats = append(neighborHeats, c.Heat)
	}
	for i := 1; i < len(neighborHeats); i++ {
		if neighborHeats[i] != neighborHeats[0] {
			t.Fatalf("Symmetric neighbors diverged: %v", neighborHeats)
		}
	}
	if math.Abs(neighborHeats[0]-12) > 1e-9 {
		t.Errorf("Expected each neighbor to receive 12, got %.3f", neighborHeats[0])
	}
	if math.Abs(hot.Heat-52) > 1e-9 {
		t.Errorf("Expected hot cell to drop to 52, got %.3f", hot.Heat)
	}

	corner, _ := g.CellAt(0, 0)
	if corner.Heat != 0 {
		t.Errorf("Diagonal cells must receive nothing in one pass, got %.3f", corner.Heat)
	}
}

func TestInsulatorWallBlocksHeat(t *testing.T) {
	ds, _ := newDiffusion(t)
	g := grid.New(3)

	// Full insulator column splits the grid in two.
	for y := 0; y < 3; y++ {
		if err := g.Place(1, y, &structure.Structure{Type: structure.TypeInsulator}); err != nil {
			t.Fatalf("Setup placement failed: %v", err)
		}
	}
	hot, _ := g.CellAt(0, 1)
	hot.Heat = 500

	for i := 0; i < 100; i++ {
		ds.Run(g)
	}

	for y := 0; y < 3; y++ {
		wall, _ := g.CellAt(1, y)
		if wall.Heat != 0 {
			t.Errorf("Insulator at (1,%d) must never absorb heat, got %.3f", y, wall.Heat)
		}
		far, _ := g.CellAt(2, y)
		if far.Heat != 0 {
			t.Errorf("Cell behind the wall at (2,%d) must stay cold, got %.3f", y, far.Heat)
		}
	}

	// The left column keeps everything.
	var left float64
	for y := 0; y < 3; y++ {
		c, _ := g.CellAt(0, y)
		left += c.Heat
	}
	if math.Abs(left-500) > 1e-9 {
		t.Errorf("Expected walled-off column to hold all 500 heat, got %.6f", left)
	}
}

func TestFuelRodGeneratesPerTick(t *testing.T) {
	ds, tun := newDiffusion(t)
	g := grid.New(4)

	if err := g.Place(2, 2, &structure.Structure{Type: structure.TypeFuelRod}); err != nil {
		t.Fatalf("Setup placement failed: %v", err)
	}

	for i := 1; i <= 5; i++ {
		ds.Run(g)
		want := tun.Heat.FuelRodOutput * float64(i)
		if got := g.TotalHeat(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Expected total heat %.1f after %d ticks, got %.6f", want, i, got)
		}
	}
}

func TestVentilatorSinksAndClamps(t *testing.T) {
	ds, tun := newDiffusion(t)
	g := grid.New(1)

	if err := g.Place(0, 0, &structure.Structure{Type: structure.TypeVentilator}); err != nil {
		t.Fatalf("Setup placement failed: %v", err)
	}
	c, _ := g.CellAt(0, 0)
	c.Heat = 10

	ds.Run(g)
	if got := c.Heat; math.Abs(got-(10-tun.Heat.VentilatorSink)) > 1e-9 {
		t.Fatalf("Expected ventilator to sink %.1f, got heat %.3f", tun.Heat.VentilatorSink, got)
	}

	// Removal beyond what the cell holds clamps at zero, never negative.
	ds.Run(g)
	if c.Heat != 0 {
		t.Errorf("Expected heat clamped to 0, got %.3f", c.Heat)
	}
}

func TestExchangerEqualizesWithHottestNeighbor(t *testing.T) {
	ds, _ := newDiffusion(t)
	g := grid.New(3)

	if err := g.Place(1, 1, &structure.Structure{Type: structure.TypeHeatExchanger}); err != nil {
		t.Fatalf("Setup placement failed: %v", err)
	}
	hot, _ := g.CellAt(1, 0)
	warm, _ := g.CellAt(0, 1)
	hot.Heat = 100
	warm.Heat = 50

	before := g.TotalHeat()
	ds.exchange(g)

	// Rate 0.5 moves a quarter of the difference from the hottest neighbor.
	exch, _ := g.CellAt(1, 1)
	if math.Abs(exch.Heat-25) > 1e-9 {
		t.Errorf("Expected exchanger to pull 25 from the hottest neighbor, got %.3f", exch.Heat)
	}
	if math.Abs(hot.Heat-75) > 1e-9 {
		t.Errorf("Expected hottest neighbor to drop to 75, got %.3f", hot.Heat)
	}
	if warm.Heat != 50 {
		t.Errorf("Expected the cooler neighbor untouched, got %.3f", warm.Heat)
	}
	if math.Abs(g.TotalHeat()-before) > 1e-9 {
		t.Errorf("Exchange must conserve heat: %.6f -> %.6f", before, g.TotalHeat())
	}
}

func TestExchangerIgnoresInsulatedNeighbors(t *testing.T) {
	ds, _ := newDiffusion(t)
	g := grid.New(3)

	if err := g.Place(1, 1, &structure.Structure{Type: structure.TypeHeatExchanger}); err != nil {
		t.Fatalf("Setup placement failed: %v", err)
	}
	if err := g.Place(1, 0, &structure.Structure{Type: structure.TypeInsulator}); err != nil {
		t.Fatalf("Setup placement failed: %v", err)
	}
	wall, _ := g.CellAt(1, 0)
	wall.Heat = 1000 // unreachable through zero conductivity
	warm, _ := g.CellAt(0, 1)
	warm.Heat = 40

	ds.exchange(g)

	exch, _ := g.CellAt(1, 1)
	if math.Abs(exch.Heat-10) > 1e-9 {
		t.Errorf("Expected exchanger to equalize with the reachable neighbor, got %.3f", exch.Heat)
	}
	if wall.Heat != 1000 {
		t.Errorf("Insulated neighbor must be skipped, got %.3f", wall.Heat)
	}
}
