package agent

import (
	"swarmgrid/internal/ids"
	"swarmgrid/internal/network"
	"swarmgrid/internal/planner"
)

// RebuildLocalReservations clears this controller's local reservation
// view and replays every message received this tick into it: path
// announcements are committed directly, and state syncs are merged
// entry-by-entry once their sequence number clears the last one accepted
// from that sender. Every message also updates the causal clock,
// regardless of whether its payload was stale.
func (c *Controller) RebuildLocalReservations(currentTick uint64, messages []network.Message) {
	c.LocalReservations.Clear()
	for _, msg := range messages {
		c.applyIncomingClock(msg)

		switch msg.Type {
		case network.PathAnnouncement, network.GoalReached:
			if len(msg.PlannedPath) == 0 {
				continue
			}
			planner.Commit(c.LocalReservations, msg.From, msg.PlannedPath, msg.Timestamp)
			c.KnownPaths[msg.From] = msg.PlannedPath

		case network.StateSync:
			if last, seen := c.LastSeenSequence[msg.From]; seen && msg.SequenceNumber <= last {
				continue
			}
			if msg.FullState != nil {
				vc := msg.VectorClock
				c.LocalReservations.Merge(msg.FullState, func(existing, incoming ids.AgentID) bool {
					return resolveStateSyncConflict(existing, incoming, vc)
				})
			}
			c.LastSeenSequence[msg.From] = msg.SequenceNumber
			c.LastStateReceived = currentTick
		}
	}
}

// resolveStateSyncConflict decides whether an incoming reservation-table
// entry should displace the one this controller already holds for the
// same key: the owner with the larger vector-clock component (as seen by
// the sender) wins, and agent_id order breaks a tie.
func resolveStateSyncConflict(existing, incoming ids.AgentID, incomingClock map[ids.AgentID]uint64) bool {
	existingComponent, incomingComponent := incomingClock[existing], incomingClock[incoming]
	if existingComponent != incomingComponent {
		return incomingComponent > existingComponent
	}
	return incoming.Less(existing)
}
