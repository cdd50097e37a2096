package agent

import (
	"swarmgrid/internal/ids"
	"swarmgrid/internal/network"
	"swarmgrid/internal/world"
)

// DetectFutureConflict compares this controller's remaining path against
// a peer's announced path over the next LookAhead steps. If both define
// the same cell at the same relative offset, this controller sets
// NeedsReplan when the sender's stamped clock component exceeds this
// controller's own component, falling back to agent_id order when the
// sender's component is absent, and otherwise holds. The two sides compare
// different clock components, so the rule does not ensure that exactly one
// of them yields. It reports whether this controller yielded.
//
// Before running the full lookahead scan, it first checks msg.Next: the
// sender's immediate intent. Two paths planned in different ticks can walk
// their cells at offsets that never line up in the scan below even though
// both agents are about to step onto the same cell right now, so the
// immediate-intent check catches what the offset-aligned scan would miss.
func (c *Controller) DetectFutureConflict(state *world.AgentState, msg network.Message) bool {
	if msg.Type == network.StateSync {
		return false
	}

	if nextCell, ok := state.NextIntent(); ok && nextCell == msg.Next {
		if c.shouldYieldTo(msg) {
			c.TriggerReplan()
			return true
		}
		return false
	}

	mine := state.RemainingPath()
	theirs := msg.PlannedPath
	limit := LookAhead
	if len(mine) < limit {
		limit = len(mine)
	}
	if len(theirs) < limit {
		limit = len(theirs)
	}

	for i := 0; i < limit; i++ {
		if mine[i] != theirs[i] {
			continue
		}
		if c.shouldYieldTo(msg) {
			c.TriggerReplan()
			return true
		}
		return false
	}
	return false
}

// shouldYieldTo decides whether this controller must give way to the
// sender of msg upon detecting a shared future cell.
func (c *Controller) shouldYieldTo(msg network.Message) bool {
	if theirClock, ok := msg.VectorClock[msg.From]; ok {
		return theirClock > c.VectorClock[c.ID]
	}
	return msg.From.Less(c.ID)
}

// DetectKnownConflict runs the same lookahead scan as DetectFutureConflict,
// but against every peer path still held in KnownPaths rather than a
// single freshly received message. It skips peers already checked against
// a message received this tick (skip), so it only catches conflicts with a
// peer whose latest announcement the lossy network dropped this tick but
// whose earlier path is still on file. Ties are broken by agent_id, since a
// cached path carries no vector clock of its own to compare against.
// It reports the peer this controller yielded to, if any.
func (c *Controller) DetectKnownConflict(state *world.AgentState, skip map[ids.AgentID]struct{}) (ids.AgentID, bool) {
	mine := state.RemainingPath()
	for peer, theirs := range c.KnownPaths {
		if _, seen := skip[peer]; seen {
			continue
		}
		limit := LookAhead
		if len(mine) < limit {
			limit = len(mine)
		}
		if len(theirs) < limit {
			limit = len(theirs)
		}
		for i := 0; i < limit; i++ {
			if mine[i] != theirs[i] {
				continue
			}
			if peer.Less(c.ID) {
				c.TriggerReplan()
				return peer, true
			}
			break
		}
	}
	return ids.AgentID{}, false
}
