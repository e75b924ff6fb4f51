// Package grid defines the fixed 2D cell lattice the simulation runs on.
// This package is PURE and must NOT import any infrastructure packages.
package grid

import (
	"errors"

	"github.com/dvaldano/heatworks/server/internal/domain/structure"
)

// Recoverable placement errors. A rejected operation leaves the grid
// completely unchanged.
var (
	ErrOutOfBounds  = errors.New("coordinates outside the grid")
	ErrCellOccupied = errors.New("cell already holds a structure")
	ErrCellEmpty    = errors.New("cell holds no structure")
)

// Cell is one lattice position. A cell owns at most one structure.
type Cell struct {
	X, Y     int
	Occupant *structure.Structure
	Heat     float64
	// delta accumulates the pending flow batch during a diffusion pass so
	// iteration order never affects the result.
	delta float64
}

// Grid is the fixed square lattice of cells.
type Grid struct {
	size  int
	cells []Cell
}

// New creates an empty size×size grid.
func New(size int) *Grid {
	g := &Grid{size: size, cells: make([]Cell, size*size)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := &g.cells[y*size+x]
			c.X, c.Y = x, y
		}
	}
	return g
}

// Size returns the lattice edge length.
func (g *Grid) Size() int {
	return g.size
}

// InBounds reports whether (x,y) is on the lattice.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

// CellAt returns the cell at (x,y), or ErrOutOfBounds.
func (g *Grid) CellAt(x, y int) (*Cell, error) {
	if !g.InBounds(x, y) {
		return nil, ErrOutOfBounds
	}
	return &g.cells[y*g.size+x], nil
}

// Place puts a structure into an empty in-bounds cell.
func (g *Grid) Place(x, y int, s *structure.Structure) error {
	cell, err := g.CellAt(x, y)
	if err != nil {
		return err
	}
	if cell.Occupant != nil {
		return ErrCellOccupied
	}
	cell.Occupant = s
	return nil
}

// Remove takes the structure out of a cell and returns it. The structure is
// dead to the simulation from this point; the caller only needs it for the
// refund computation.
func (g *Grid) Remove(x, y int) (*structure.Structure, error) {
	cell, err := g.CellAt(x, y)
	if err != nil {
		return nil, err
	}
	if cell.Occupant == nil {
		return nil, ErrCellEmpty
	}
	s := cell.Occupant
	cell.Occupant = nil
	return s, nil
}

// EachCell visits every cell in row-major order.
func (g *Grid) EachCell(fn func(c *Cell)) {
	for i := range g.cells {
		fn(&g.cells[i])
	}
}

// Neighbors appends the orthogonally adjacent cells of (x,y) to dst and
// returns it. Edge cells simply have fewer neighbors; missing neighbors are
// not walls.
func (g *Grid) Neighbors(x, y int, dst []*Cell) []*Cell {
	if g.InBounds(x, y-1) {
		dst = append(dst, &g.cells[(y-1)*g.size+x])
	}
	if g.InBounds(x-1, y) {
		dst = append(dst, &g.cells[y*g.size+x-1])
	}
	if g.InBounds(x+1, y) {
		dst = append(dst, &g.cells[y*g.size+x+1])
	}
	if g.InBounds(x, y+1) {
		dst = append(dst, &g.cells[(y+1)*g.size+x])
	}
	return dst
}

// AddDelta stages a heat change to be applied with the rest of the batch.
func (c *Cell) AddDelta(d float64) {
	c.delta += d
}

// ApplyDeltas commits every staged heat change at once and clamps cells to
// non-negative heat. Diffusion itself is conserving; the clamp only defends
// against float drift.
func (g *Grid) ApplyDeltas() {
	for i := range g.cells {
		c := &g.cells[i]
		c.Heat += c.delta
		c.delta = 0
		if c.Heat < 0 {
			c.Heat = 0
		}
	}
}

// TotalHeat sums heat over the whole lattice.
func (g *Grid) TotalHeat() float64 {
	var sum float64
	for i := range g.cells {
		sum += g.cells[i].Heat
	}
	return sum
}
