// Package systems provides ECS systems for the simulation.
package systems

import (
	"iter"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/seir/components"
)

// Grid is a toroidal multi-occupancy index of agents by cell.
// Every placed entity lives in exactly one cell; coordinates wrap on both axes.
type Grid struct {
	width  int
	height int
	cells  [][]ecs.Entity // row-major: index = y*width + x
	count  int
}

// NewGrid creates an empty width x height grid.
func NewGrid(width, height int) *Grid {
	cells := make([][]ecs.Entity, width*height)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 2)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  cells,
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Len returns the number of placed entities.
func (g *Grid) Len() int { return g.count }

// Wrap maps any coordinate onto the grid.
func (g *Grid) Wrap(x, y int) components.Position {
	return components.Position{X: mod(x, g.width), Y: mod(y, g.height)}
}

// CellContents returns the entities in the cell at (x, y), wrapping coordinates.
// The slice is owned by the grid: do not modify it, and do not hold it across
// Place or Relocate calls.
func (g *Grid) CellContents(x, y int) []ecs.Entity {
	return g.cells[g.index(x, y)]
}

// Place inserts e at (x, y) and returns the wrapped position.
func (g *Grid) Place(e ecs.Entity, x, y int) components.Position {
	pos := g.Wrap(x, y)
	idx := pos.Y*g.width + pos.X
	g.cells[idx] = append(g.cells[idx], e)
	g.count++
	return pos
}

// Relocate moves e from its current cell to (x, y) and returns the wrapped
// destination. Relative order of the remaining occupants is preserved.
func (g *Grid) Relocate(e ecs.Entity, from components.Position, x, y int) components.Position {
	to := g.Wrap(x, y)
	if to == from {
		return to
	}
	src := from.Y*g.width + from.X
	if i := slices.Index(g.cells[src], e); i >= 0 {
		g.cells[src] = slices.Delete(g.cells[src], i, i+1)
	}
	dst := to.Y*g.width + to.X
	g.cells[dst] = append(g.cells[dst], e)
	return to
}

// All yields every cell exactly once in row-major order (y outer, x inner),
// including empty cells.
func (g *Grid) All() iter.Seq2[components.Position, []ecs.Entity] {
	return func(yield func(components.Position, []ecs.Entity) bool) {
		for y := 0; y < g.height; y++ {
			for x := 0; x < g.width; x++ {
				if !yield(components.Position{X: x, Y: y}, g.cells[y*g.width+x]) {
					return
				}
			}
		}
	}
}

// index returns the flat index for a (possibly out of range) coordinate.
func (g *Grid) index(x, y int) int {
	return mod(y, g.height)*g.width + mod(x, g.width)
}

// mod is the non-negative remainder.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
