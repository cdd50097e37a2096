// Package coordination defines the structured events emitted by the
// per-agent coordination controller's state machine.
package coordination

import (
	"context"

	"swarmgrid/logging"
)

const (
	// EventStateTransition is the event type StateTransition publishes for
	// a controller state change. The simulator's tick loop does not call
	// StateTransition.
	EventStateTransition logging.EventType = "coordination.state_transition"
	// EventFutureConflictYield is emitted when a controller yields to a
	// peer after detecting a shared future cell.
	EventFutureConflictYield logging.EventType = "coordination.future_conflict_yield"
	// EventDeadlockResolved is emitted when the deadlock resolver forces
	// an agent back into planning.
	EventDeadlockResolved logging.EventType = "coordination.deadlock_resolved"
)

// StateTransitionPayload captures the from/to states of a transition.
type StateTransitionPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FutureConflictYieldPayload records the peer this controller yielded to.
// The simulator sets only YieldedTo, so Offset is always zero.
type FutureConflictYieldPayload struct {
	YieldedTo string `json:"yieldedTo"`
	Offset    int    `json:"offset"`
}

// DeadlockResolvedPayload records the stuck-tick count and the wait
// counter value the resolver set.
type DeadlockResolvedPayload struct {
	StuckTicks  int `json:"stuckTicks"`
	WaitCounter int `json:"waitCounter"`
}

// StateTransition publishes a controller state-change event.
func StateTransition(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StateTransitionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStateTransition,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCoordination,
		Payload:  payload,
	})
}

// FutureConflictYield publishes a yield event.
func FutureConflictYield(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FutureConflictYieldPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFutureConflictYield,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCoordination,
		Payload:  payload,
	})
}

// DeadlockResolved publishes a deadlock-resolution event.
func DeadlockResolved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DeadlockResolvedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeadlockResolved,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCoordination,
		Payload:  payload,
	})
}
