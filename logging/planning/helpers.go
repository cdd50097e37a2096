// Package planning defines the structured events emitted by the
// space-time path planner.
package planning

import (
	"context"

	"swarmgrid/logging"
)

const (
	// EventPathFound is emitted when the planner returns a non-empty path.
	EventPathFound logging.EventType = "planning.path_found"
	// EventPathUnreachable is emitted when the planner exhausts its search
	// horizon without reaching the goal.
	EventPathUnreachable logging.EventType = "planning.path_unreachable"
	// EventReplanForced is emitted when an agent is forced back into
	// planning by a conflict rather than by its own state machine.
	EventReplanForced logging.EventType = "planning.replan_forced"
)

// PathFoundPayload captures the shape of a successful plan.
type PathFoundPayload struct {
	Length    int    `json:"length"`
	StartTick uint64 `json:"startTick"`
}

// PathUnreachablePayload captures the wait streak accompanying a failed
// plan attempt.
type PathUnreachablePayload struct {
	WaitCounter int    `json:"waitCounter"`
	StartTick   uint64 `json:"startTick"`
}

// ReplanForcedPayload records why a replan was forced outside the
// ordinary WAITING escalation.
type ReplanForcedPayload struct {
	Reason string `json:"reason"`
}

// PathFound publishes a successful plan event.
func PathFound(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PathFoundPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathFound,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPlanning,
		Payload:  payload,
	})
}

// PathUnreachable publishes a failed plan attempt.
func PathUnreachable(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PathUnreachablePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathUnreachable,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPlanning,
		Payload:  payload,
	})
}

// ReplanForced publishes a forced-replan event.
func ReplanForced(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReplanForcedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventReplanForced,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPlanning,
		Payload:  payload,
	})
}
