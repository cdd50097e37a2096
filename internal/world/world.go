package world

import (
	"fmt"
	"sync"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
)

// World is the shared, mutex-guarded live simulation state: the static
// grid plus the mutable set of agents and the current tick. All mutating
// access is serialized by mu; snapshots taken for the parallel planning
// phase must copy under the lock.
type World struct {
	mu sync.Mutex

	grid        *grid.Grid
	agents      map[ids.AgentID]*AgentState
	agentOrder  []ids.AgentID
	currentTick uint64
}

// New constructs a world from a grid and an initial agent roster. Agent
// positions must already be valid free cells; New panics otherwise, since
// that would violate an invariant no caller should be able to produce.
func New(g *grid.Grid, agents []*AgentState) *World {
	w := &World{
		grid:       g,
		agents:     make(map[ids.AgentID]*AgentState, len(agents)),
		agentOrder: make([]ids.AgentID, 0, len(agents)),
	}
	for _, a := range agents {
		if !g.IsFree(a.Pos) {
			panic(fmt.Sprintf("world.New: agent %s starts on non-free cell %+v", a.ID, a.Pos))
		}
		w.agents[a.ID] = a
		w.agentOrder = append(w.agentOrder, a.ID)
	}
	return w
}

// Grid returns the static obstacle map. The grid itself is immutable so
// this is safe to call without holding the lock.
func (w *World) Grid() *grid.Grid {
	return w.grid
}

// CurrentTick returns the current simulation tick.
func (w *World) CurrentTick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTick
}

// AdvanceTick increments the simulation clock.
func (w *World) AdvanceTick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.currentTick++
}

// AgentIDs returns agent identifiers in the world's fixed roster order.
func (w *World) AgentIDs() []ids.AgentID {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ids.AgentID, len(w.agentOrder))
	copy(out, w.agentOrder)
	return out
}

// Agent returns the live agent state for id, or nil if unknown. Callers
// must hold no assumption that the returned pointer stays consistent
// beyond a single tick's phase without external synchronization: all
// mutation of *AgentState happens on the single-threaded phases of the
// tick loop, per the concurrency model.
func (w *World) Agent(id ids.AgentID) *AgentState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.agents[id]
}

// AgentSnapshot is a copy of one agent's identity, position, goal and
// collision-stopped flag, as taken under the lock by Snapshot.
type AgentSnapshot struct {
	ID               ids.AgentID
	Pos              grid.Cell
	Goal             grid.Cell
	CollisionStopped bool
}

// Snapshot returns a consistent, order-preserving copy of the agent
// roster's positions and goals.
func (w *World) Snapshot() []AgentSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]AgentSnapshot, 0, len(w.agentOrder))
	for _, id := range w.agentOrder {
		a := w.agents[id]
		out = append(out, AgentSnapshot{ID: a.ID, Pos: a.Pos, Goal: a.Goal, CollisionStopped: a.CollisionStopped})
	}
	return out
}

// AllAtGoal reports whether every agent has reached its goal.
func (w *World) AllAtGoal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.agentOrder {
		if !w.agents[id].AtGoal {
			return false
		}
	}
	return true
}

// ActiveAgentCount returns the number of agents not yet at their goal.
func (w *World) ActiveAgentCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	count := 0
	for _, id := range w.agentOrder {
		if !w.agents[id].AtGoal {
			count++
		}
	}
	return count
}

// TryMove writes an agent's position directly, without checking against
// other agents' simultaneous moves (the tick loop's execute phase applies
// every intended move before running the collision audit). It refuses
// only moves onto an invalid or obstacle cell.
func (w *World) TryMove(id ids.AgentID, to grid.Cell) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.agents[id]
	if !ok || !w.grid.IsFree(to) {
		return false
	}
	a.Pos = to
	return true
}

// PositionsByCell groups every agent's current position, for the
// collision audit phase.
func (w *World) PositionsByCell() map[grid.Cell][]ids.AgentID {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[grid.Cell][]ids.AgentID)
	for _, id := range w.agentOrder {
		pos := w.agents[id].Pos
		out[pos] = append(out[pos], id)
	}
	return out
}

// IsOccupied reports whether any agent other than exclude currently sits
// on cell.
func (w *World) IsOccupied(cell grid.Cell, exclude ids.AgentID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.agentOrder {
		if id == exclude {
			continue
		}
		if w.agents[id].Pos == cell {
			return true
		}
	}
	return false
}
