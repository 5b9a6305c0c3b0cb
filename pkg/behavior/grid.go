package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
)

// minCellSize keeps the grid from degenerating into one cell per fish when the
// neighbour distance is tuned close to zero.
const minCellSize = 0.25

type cellKey struct {
	x, y, z int
}

// Grid is a spatial hash of a flock snapshot. Each cell is a cube of side
// cellSize, so every neighbour closer than cellSize lies in the 3x3x3 block
// of cells around a fish.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]int
	near     []int
}

// NewGrid returns an empty grid; call Rebuild before Near.
func NewGrid() *Grid {
	return &Grid{cells: make(map[cellKey][]int)}
}

// Rebuild indexes flock. Cell slices are truncated rather than dropped, so
// after the first few ticks a rebuild allocates almost nothing. A new cell
// size empties the map: keys of the old size never match again.
func (g *Grid) Rebuild(flock []Boid, cellSize float64) {
	cellSize = math.Max(cellSize, minCellSize)
	if cellSize != g.cellSize {
		clear(g.cells)
		g.cellSize = cellSize
	} else {
		for k := range g.cells {
			g.cells[k] = g.cells[k][:0]
		}
	}
	for i, b := range flock {
		key := g.key(b.Position)
		g.cells[key] = append(g.cells[key], i)
	}
}

// Near returns the indices stored in the 27 cells around p, p's own cell included.
// The slice is reused by the next call.
func (g *Grid) Near(p geometry.Vector3D) []int {
	g.near = g.near[:0]
	c := g.key(p)
	for x := c.x - 1; x <= c.x+1; x++ {
		for y := c.y - 1; y <= c.y+1; y++ {
			for z := c.z - 1; z <= c.z+1; z++ {
				g.near = append(g.near, g.cells[cellKey{x, y, z}]...)
			}
		}
	}
	return g.near
}

// CellSize is the side of a cell as used by the last Rebuild.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

func (g *Grid) key(p geometry.Vector3D) cellKey {
	// floor, not truncation: the tank is centred on the origin
	return cellKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
		z: int(math.Floor(p.Z / g.cellSize)),
	}
}
