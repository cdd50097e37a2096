// Package planner implements cooperative A* over the (cell, tick)
// space-time lattice, planning single-agent paths against a shared
// reservation table so that no two agents ever claim the same cell at the
// same tick, nor swap positions across a single tick.
package planner

import (
	"container/heap"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/reservation"
)

// GoalWindow is the number of extra ticks beyond path completion for which
// the goal cell is held reserved, so peers routing through a stationary
// goal-occupant see it as permanently blocked.
const GoalWindow = 100

// node is a single (cell, tick) state explored by the search.
type node struct {
	cell   grid.Cell
	tick   uint64
	g      float64
	f      float64
	index  int
	parent *node
}

type openSet []*node

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool { return s[i].f < s[j].f }

func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}

func (s *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*s)
	*s = append(*s, n)
}

func (s *openSet) Pop() any {
	old := *s
	last := len(old) - 1
	item := old[last]
	old[last] = nil
	item.index = -1
	*s = old[:last]
	return item
}

type stateKey struct {
	cell grid.Cell
	tick uint64
}

func heuristic(from, to grid.Cell) float64 {
	return float64(from.Manhattan(to))
}

// Plan searches for a path from start to goal that begins at startTick,
// respecting the given reservation table's claims by every agent other
// than self. It returns nil if no path is found within the search
// horizon.
func Plan(g *grid.Grid, table *reservation.Table, self ids.AgentID, start, goal grid.Cell, startTick uint64) []grid.Cell {
	if g == nil || table == nil || !g.IsFree(start) || !g.IsFree(goal) {
		return nil
	}

	horizon := startTick + uint64(2*g.Width()*g.Height())

	open := &openSet{}
	heap.Init(open)
	startNode := &node{cell: start, tick: startTick, g: 0, f: heuristic(start, goal)}
	heap.Push(open, startNode)

	best := map[stateKey]float64{{cell: start, tick: startTick}: 0}
	closed := make(map[stateKey]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		key := stateKey{cell: current.cell, tick: current.tick}
		if _, seen := closed[key]; seen {
			continue
		}
		closed[key] = struct{}{}

		if current.cell == goal {
			return reconstruct(current)
		}
		if current.tick >= horizon {
			continue
		}

		for _, next := range candidates(g, current.cell) {
			nextTick := current.tick + 1
			if hasVertexConflict(table, self, next, nextTick) {
				continue
			}
			if next != current.cell && hasSwapConflict(table, self, current.cell, next, current.tick, nextTick) {
				continue
			}

			tentativeG := current.g + 1
			nextKey := stateKey{cell: next, tick: nextTick}
			if prior, ok := best[nextKey]; ok && tentativeG >= prior {
				continue
			}
			best[nextKey] = tentativeG
			heap.Push(open, &node{
				cell:   next,
				tick:   nextTick,
				g:      tentativeG,
				f:      tentativeG + heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil
}

// candidates returns the 4-adjacent free neighbors of c plus c itself
// (waiting in place).
func candidates(g *grid.Grid, c grid.Cell) []grid.Cell {
	neighbors := g.Neighbors4(c)
	out := make([]grid.Cell, 0, len(neighbors)+1)
	out = append(out, neighbors...)
	out = append(out, c)
	return out
}

func hasVertexConflict(table *reservation.Table, self ids.AgentID, cell grid.Cell, tick uint64) bool {
	owner, ok := table.Lookup(reservation.KeyAt(cell, tick))
	return ok && owner != self
}

// hasSwapConflict detects the head-on swap: another agent B currently
// holds `to` at `fromTick` and is moving into `from` at `toTick`.
func hasSwapConflict(table *reservation.Table, self ids.AgentID, from, to grid.Cell, fromTick, toTick uint64) bool {
	holder, ok := table.Lookup(reservation.KeyAt(to, fromTick))
	if !ok || holder == self {
		return false
	}
	incoming, ok := table.Lookup(reservation.KeyAt(from, toTick))
	return ok && incoming == holder
}

func reconstruct(end *node) []grid.Cell {
	length := 0
	for n := end; n != nil; n = n.parent {
		length++
	}
	path := make([]grid.Cell, length)
	i := length - 1
	for n := end; n != nil; n = n.parent {
		path[i] = n.cell
		i--
	}
	return path
}

// Commit clears self's prior reservations and records path starting at
// startTick, then extends a trailing reservation on the final cell for
// GoalWindow additional ticks. Conflicting inserts (which the planner's
// own conflict checks should already prevent) are silently skipped.
func Commit(table *reservation.Table, self ids.AgentID, path []grid.Cell, startTick uint64) {
	if table == nil {
		return
	}
	table.Erase(self)
	if len(path) == 0 {
		return
	}
	for i, c := range path {
		table.Insert(reservation.KeyAt(c, startTick+uint64(i)), self)
	}
	goalCell := path[len(path)-1]
	goalTick := startTick + uint64(len(path))
	for future := 0; future < GoalWindow; future++ {
		table.Insert(reservation.KeyAt(goalCell, goalTick+uint64(future)), self)
	}
}
