package grid

// Grid is a static, fixed-size obstacle map. Free cells (rune '.') admit
// occupancy and movement; obstacle cells (rune '#') never do. Dimensions
// are immutable after construction.
type Grid struct {
	width, height int
	obstacle      []bool // row-major, index = y*width+x
}

// New constructs a grid from a row-major obstacle mask. obstacle must have
// exactly width*height entries.
func New(width, height int, obstacle []bool) *Grid {
	cloned := make([]bool, len(obstacle))
	copy(cloned, obstacle)
	return &Grid{width: width, height: height, obstacle: cloned}
}

// Width returns the grid's column count.
func (g *Grid) Width() int { return g.width }

// Height returns the grid's row count.
func (g *Grid) Height() int { return g.height }

func (g *Grid) index(c Cell) int {
	return c.Y*g.width + c.X
}

// InBounds reports whether c lies within the grid's dimensions.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height
}

// IsFree reports whether c is in bounds and not an obstacle.
func (g *Grid) IsFree(c Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	return !g.obstacle[g.index(c)]
}

// FreeCells returns every free cell in row-major order. Callers that need a
// stable iteration order for deterministic placement rely on this order.
func (g *Grid) FreeCells() []Cell {
	cells := make([]Cell, 0, g.width*g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Cell{X: x, Y: y}
			if g.IsFree(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// Neighbors4 returns the free, in-bounds 4-adjacent cells of c, in a fixed
// N, E, S, W order. The "wait in place" option is intentionally excluded;
// callers that need it (the planner) add c itself explicitly.
func (g *Grid) Neighbors4(c Cell) []Cell {
	out := make([]Cell, 0, 4)
	for _, offset := range cardinalOffsets {
		next := c.Add(offset.X, offset.Y)
		if g.IsFree(next) {
			out = append(out, next)
		}
	}
	return out
}

// Reachable reports whether goal is reachable from start via 4-adjacent
// free cells, using breadth-first search. Both cells must themselves be
// free.
func (g *Grid) Reachable(start, goal Cell) bool {
	if !g.IsFree(start) || !g.IsFree(goal) {
		return false
	}
	if start == goal {
		return true
	}
	visited := make(map[Cell]struct{})
	visited[start] = struct{}{}
	queue := []Cell{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.Neighbors4(current) {
			if _, seen := visited[next]; seen {
				continue
			}
			if next == goal {
				return true
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}
