// Package systems provides the per-step systems that act on the agent store.
package systems

import "github.com/pthm-cable/equilibrium/components"

// SpatialGrid buckets slot indices into fixed-size cells for broad-phase
// contact detection. The arena is bounded, so cells do not wrap.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
}

// NewSpatialGrid creates a grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear empties every cell, keeping capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds slot at the given position.
func (g *SpatialGrid) Insert(slot int, p components.Position) {
	col, row := g.cell(p)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], slot)
}

// Candidates appends to dst every slot in the cells overlapping a square of
// half-width radius around p. Callers filter by exact distance.
func (g *SpatialGrid) Candidates(dst []int, p components.Position, radius float64) []int {
	reach := int(radius/g.cellSize) + 1
	col, row := g.cell(p)

	for dr := -reach; dr <= reach; dr++ {
		r := row + dr
		if r < 0 || r >= g.rows {
			continue
		}
		for dc := -reach; dc <= reach; dc++ {
			c := col + dc
			if c < 0 || c >= g.cols {
				continue
			}
			dst = append(dst, g.cells[r*g.cols+c]...)
		}
	}
	return dst
}

func (g *SpatialGrid) cell(p components.Position) (col, row int) {
	col = int(p.X / g.cellSize)
	row = int(p.Y / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
