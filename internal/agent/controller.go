// Package agent implements the per-agent coordination controller: the
// local state machine each simulated agent runs independently, using only
// messages delivered over the simulated network to avoid colliding with
// its peers.
package agent

import (
	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/network"
	"swarmgrid/internal/planner"
	"swarmgrid/internal/reservation"
	"swarmgrid/internal/world"
)

// State names the coordination controller's current lifecycle phase.
type State string

const (
	StatePlanning         State = "PLANNING"
	StateMoving           State = "MOVING"
	StateWaiting          State = "WAITING"
	StateAtGoal           State = "AT_GOAL"
	StateCollisionStopped State = "COLLISION_STOPPED"
)

const (
	// LookAhead bounds the future-conflict comparison window between this
	// agent's remaining path and a peer's announced path.
	LookAhead = 15
	// StateBroadcastInterval is the tick period on which a STATE_SYNC is
	// sent unconditionally.
	StateBroadcastInterval = 10
	// StaleStateThreshold forces a STATE_SYNC when no peer state has been
	// received in this many ticks.
	StaleStateThreshold = 15
	// StoppedPaddingLength is the length of the constant-cell path an
	// at-goal or collision-stopped agent announces, to reserve its square
	// far into the future.
	StoppedPaddingLength = 200
	// Redundancy is the number of independent copies of each broadcast
	// message sent, each subject to an independent drop roll.
	Redundancy = 3
	// ReplanWaitLimit is the number of consecutive empty plans tolerated
	// before the controller flags itself for a forced replan.
	ReplanWaitLimit = 5
	// DeadlockThreshold is the stuck-tick count that classifies an agent
	// as deadlocked under ordinary circumstances.
	DeadlockThreshold = 6
	// CollisionStoppedDeadlockThreshold is the lower stuck-tick threshold
	// applied to agents already latched collision-stopped, so a stopped
	// agent is never left waiting on the ordinary threshold to be picked
	// up by the deadlock resolver.
	CollisionStoppedDeadlockThreshold = 3
)

// Controller holds all of an agent's private coordination bookkeeping:
// everything the tick loop needs to decide what this agent does next,
// separate from the shared world.AgentState the loop also mutates.
type Controller struct {
	ID ids.AgentID

	State       State
	NeedsReplan bool
	WaitCounter int

	// LocalReservations is this controller's private view of the
	// space-time lattice, rebuilt each tick from received messages and
	// consulted (and briefly written to) during planning. No other
	// controller touches it.
	LocalReservations *reservation.Table

	// KnownPaths records the most recently announced remaining path for
	// every peer, used for future-conflict detection.
	KnownPaths map[ids.AgentID][]grid.Cell

	// LastSeenSequence tracks, per peer, the highest STATE_SYNC sequence
	// number accepted so far.
	LastSeenSequence map[ids.AgentID]uint64

	LastStateBroadcast uint64
	LastStateReceived  uint64

	VectorClock map[ids.AgentID]uint64
	LocalClock  uint64

	StuckCounter       int
	LastPosition       grid.Cell
	LastSuccessfulMove uint64
}

// NewController creates a controller for id, freshly planning from start.
func NewController(id ids.AgentID, start grid.Cell) *Controller {
	return &Controller{
		ID:                id,
		State:             StatePlanning,
		LocalReservations: reservation.New(),
		KnownPaths:        make(map[ids.AgentID][]grid.Cell),
		LastSeenSequence:  make(map[ids.AgentID]uint64),
		VectorClock:       make(map[ids.AgentID]uint64),
		LastPosition:      start,
	}
}

// NeedsPlanning reports whether phase 2 should invoke the planner for
// this agent this tick.
func (c *Controller) NeedsPlanning() bool {
	switch c.State {
	case StatePlanning, StateWaiting:
		return true
	default:
		return c.NeedsReplan
	}
}

// Plan invokes the space-time planner against this controller's local
// reservation view and applies the resulting state transition.
func (c *Controller) Plan(g *grid.Grid, state *world.AgentState, tick uint64) {
	path := planner.Plan(g, c.LocalReservations, c.ID, state.Pos, state.Goal, tick)
	if len(path) == 0 {
		c.WaitCounter++
		c.State = StateWaiting
		if c.WaitCounter >= ReplanWaitLimit {
			c.NeedsReplan = true
		}
		return
	}
	state.SetPath(path)
	planner.Commit(c.LocalReservations, c.ID, path, tick)
	c.NeedsReplan = false
	c.WaitCounter = 0
	c.State = StateMoving
}

// TriggerReplan forces this controller back to PLANNING on the next
// planning phase, used by pre-execution conflict validation and
// future-conflict yielding.
func (c *Controller) TriggerReplan() {
	c.NeedsReplan = true
	c.State = StatePlanning
}

// MarkAtGoal transitions the controller into the terminal AT_GOAL state.
func (c *Controller) MarkAtGoal() {
	c.State = StateAtGoal
	c.NeedsReplan = false
}

// MarkCollisionStopped latches the controller into COLLISION_STOPPED and
// sets the shared world.AgentState's own CollisionStopped flag, so any
// reader of the world snapshot (not just this controller) can see that the
// agent is holding in place after a collision. Clearable only by the
// deadlock resolver.
func (c *Controller) MarkCollisionStopped(state *world.AgentState) {
	c.State = StateCollisionStopped
	c.NeedsReplan = true
	state.CollisionStopped = true
}

// ResolveDeadlock implements the deadlock resolver's per-agent reset: it
// discards the current plan, clears this controller's own entries from
// its local reservation view, and sets WaitCounter to waitTicks. The
// controller is left in PLANNING, so it plans again at the next planning
// phase; WaitCounter does not delay that attempt.
func (c *Controller) ResolveDeadlock(state *world.AgentState, waitTicks int) {
	state.ClearPath()
	state.CollisionStopped = false
	c.State = StatePlanning
	c.NeedsReplan = true
	c.StuckCounter = 0
	c.WaitCounter = waitTicks
	c.LocalReservations.Erase(c.ID)
}

// UpdateDeadlockTracking advances the stuck-tick counter based on whether
// pos differs from the position last observed.
func (c *Controller) UpdateDeadlockTracking(pos grid.Cell, tick uint64) {
	if pos == c.LastPosition {
		c.StuckCounter++
	} else {
		c.StuckCounter = 0
		c.LastSuccessfulMove = tick
	}
	c.LastPosition = pos
}

// IsDeadlocked reports whether the stuck-tick counter has crossed the
// applicable threshold for this controller's current state.
func (c *Controller) IsDeadlocked() bool {
	threshold := DeadlockThreshold
	if c.State == StateCollisionStopped {
		threshold = CollisionStoppedDeadlockThreshold
	}
	return c.StuckCounter >= threshold
}

// applyIncomingClock folds a received message's vector clock into this
// controller's own, then advances the local logical clock.
func (c *Controller) applyIncomingClock(msg network.Message) {
	for peer, v := range msg.VectorClock {
		if v > c.VectorClock[peer] {
			c.VectorClock[peer] = v
		}
	}
	if c.VectorClock[c.ID] > c.LocalClock {
		c.LocalClock = c.VectorClock[c.ID]
	}
	c.LocalClock++
	c.VectorClock[c.ID] = c.LocalClock
}

// stampOutgoingClock advances the local logical clock and returns an
// independent snapshot suitable for attaching to an outgoing message.
func (c *Controller) stampOutgoingClock() map[ids.AgentID]uint64 {
	c.LocalClock++
	c.VectorClock[c.ID] = c.LocalClock
	return network.CloneVectorClock(c.VectorClock)
}
