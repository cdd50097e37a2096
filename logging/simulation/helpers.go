// Package simulation defines the structured events emitted by the tick
// loop itself.
package simulation

import (
	"context"

	"swarmgrid/logging"
)

const (
	// EventCollisionDetected is emitted by the collision audit phase for
	// every colliding cell.
	EventCollisionDetected logging.EventType = "simulation.collision_detected"
	// EventTickCompleted is emitted once per tick after the trace is
	// recorded.
	EventTickCompleted logging.EventType = "simulation.tick_completed"
	// EventRunCompleted is emitted once when the loop terminates.
	EventRunCompleted logging.EventType = "simulation.run_completed"
)

// CollisionDetectedPayload names every agent involved in one colliding
// cell.
type CollisionDetectedPayload struct {
	Cell      [2]int   `json:"cell"`
	AgentIDs  []string `json:"agentIds"`
	Displaced []string `json:"displaced,omitempty"`
	Stopped   []string `json:"stopped,omitempty"`
}

// TickCompletedPayload summarizes one tick's outcome.
type TickCompletedPayload struct {
	ActiveAgents    int `json:"activeAgents"`
	MessagesSent    int `json:"messagesSent"`
	MessagesDropped int `json:"messagesDropped"`
	ReplansThisTick int `json:"replansThisTick"`
}

// RunCompletedPayload summarizes the whole run.
type RunCompletedPayload struct {
	Makespan          uint64 `json:"makespan"`
	CollisionDetected bool   `json:"collisionDetected"`
	TotalReplans      int    `json:"totalReplans"`
}

// CollisionDetected publishes a collision-audit event.
func CollisionDetected(ctx context.Context, pub logging.Publisher, tick uint64, payload CollisionDetectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCollisionDetected,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// TickCompleted publishes a per-tick summary event.
func TickCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload TickCompletedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickCompleted,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// RunCompleted publishes the terminal run-summary event.
func RunCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload RunCompletedPayload) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	if payload.CollisionDetected {
		severity = logging.SeverityError
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRunCompleted,
		Tick:     tick,
		Severity: severity,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
