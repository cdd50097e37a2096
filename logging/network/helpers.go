// Package network defines the structured events emitted by the simulated
// broadcast bus.
package network

import (
	"context"

	"swarmgrid/logging"
)

const (
	// EventMessageSent is emitted for every send attempt, before the drop
	// roll is applied.
	EventMessageSent logging.EventType = "network.message_sent"
	// EventMessageDropped is emitted when a send attempt is dropped by the
	// simulated channel.
	EventMessageDropped logging.EventType = "network.message_dropped"
)

// MessageSentPayload captures the outgoing message's shape.
type MessageSentPayload struct {
	Type      string `json:"type"`
	Redundant int    `json:"redundantCopy"`
}

// MessageDroppedPayload captures the same shape for a dropped attempt.
type MessageDroppedPayload struct {
	Type      string `json:"type"`
	Redundant int    `json:"redundantCopy"`
}

// MessageSent publishes a debug event for every send attempt.
func MessageSent(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MessageSentPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMessageSent,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// MessageDropped publishes a debug event for a dropped send attempt.
func MessageDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MessageDroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMessageDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
