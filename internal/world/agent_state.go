// Package world owns the grid together with the live, mutable set of
// agents moving across it: the shared state every tick phase reads and
// writes.
package world

import (
	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
)

// AgentState is the shared per-agent record mutated by the tick loop and
// read by the coordination controller. It is distinct from the
// controller's own bookkeeping (vector clocks, sequence numbers, and so
// on), which lives in the agent package.
type AgentState struct {
	ID  ids.AgentID
	Pos grid.Cell
	// Goal is fixed for the agent's lifetime.
	Goal grid.Cell
	// PlannedPath is the sequence of cells starting at Pos that the
	// planner most recently produced.
	PlannedPath []grid.Cell
	// PathIndex is the cursor into PlannedPath for the agent's current
	// position.
	PathIndex int
	// AtGoal latches once Pos == Goal and never clears short of a full
	// reset.
	AtGoal bool
	// CollisionStopped latches when the engine decides this agent must
	// hold in place after a collision; only the deadlock resolver clears
	// it.
	CollisionStopped bool
}

// NewAgentState constructs an agent at start with the given goal. The
// agent begins in the PLANNING state implicitly: PlannedPath is empty.
func NewAgentState(id ids.AgentID, start, goal grid.Cell) *AgentState {
	return &AgentState{ID: id, Pos: start, Goal: goal}
}

// Reset restores the agent to its initial planning state without altering
// identity, start, or goal semantics: callers pass the original start
// cell.
func (a *AgentState) Reset(start grid.Cell) {
	a.Pos = start
	a.PlannedPath = nil
	a.PathIndex = 0
	a.AtGoal = a.Pos == a.Goal
	a.CollisionStopped = false
}

// NextIntent returns the cell this agent intends to occupy next tick and
// whether one is defined (the agent has a remaining path).
func (a *AgentState) NextIntent() (grid.Cell, bool) {
	if a.PathIndex+1 >= len(a.PlannedPath) {
		return grid.Cell{}, false
	}
	return a.PlannedPath[a.PathIndex+1], true
}

// RemainingPath returns the suffix of PlannedPath from PathIndex onward,
// i.e. the agent's current position followed by its remaining route.
func (a *AgentState) RemainingPath() []grid.Cell {
	if a.PathIndex >= len(a.PlannedPath) {
		if a.PathIndex == 0 && len(a.PlannedPath) == 0 {
			return []grid.Cell{a.Pos}
		}
		return nil
	}
	return a.PlannedPath[a.PathIndex:]
}

// AdvancePathIndex moves the cursor to the next planned cell, latching
// AtGoal if that cell is the goal.
func (a *AgentState) AdvancePathIndex() {
	if a.PathIndex+1 < len(a.PlannedPath) {
		a.PathIndex++
	}
	if a.Pos == a.Goal {
		a.AtGoal = true
	}
}

// SetPath installs a freshly planned path starting at the agent's current
// position.
func (a *AgentState) SetPath(path []grid.Cell) {
	a.PlannedPath = path
	a.PathIndex = 0
}

// ClearPath discards the current plan, forcing the controller back into
// PLANNING on the next tick.
func (a *AgentState) ClearPath() {
	a.PlannedPath = nil
	a.PathIndex = 0
}
