// Package simulator drives the fixed nine-phase tick loop that
// orchestrates planning, coordination, and world mutation for every
// agent in a run.
package simulator

import (
	"context"
	"sort"
	"sync"

	"swarmgrid/internal/agent"
	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/metrics"
	"swarmgrid/internal/network"
	"swarmgrid/internal/world"
	"swarmgrid/logging"
	"swarmgrid/logging/coordination"
	netevents "swarmgrid/logging/network"
	"swarmgrid/logging/planning"
	"swarmgrid/logging/simulation"
)

// Simulator owns the shared world, one coordination controller per agent,
// the simulated network, and the metrics collector, and drives them
// through the fixed phase order every tick.
type Simulator struct {
	world       *world.World
	controllers map[ids.AgentID]*agent.Controller
	net         *network.Network
	metrics     *metrics.Collector
	maxTicks    uint64
	logger      logging.Publisher

	traceObserver func(metrics.TickTrace)
}

// SetTraceObserver registers fn to be called with every tick's trace
// record as it is produced, in addition to the record being appended to
// the metrics collector. Used to fan a live run out to spectators without
// coupling the tick loop to any particular transport.
func (s *Simulator) SetTraceObserver(fn func(metrics.TickTrace)) {
	s.traceObserver = fn
}

// New constructs a simulator over an already-populated world, seeding one
// controller per agent already present in the world.
func New(w *world.World, net *network.Network, collector *metrics.Collector, maxTicks uint64, logger logging.Publisher) *Simulator {
	if logger == nil {
		logger = logging.NopPublisher()
	}
	controllers := make(map[ids.AgentID]*agent.Controller, len(w.AgentIDs()))
	for _, id := range w.AgentIDs() {
		state := w.Agent(id)
		controllers[id] = agent.NewController(id, state.Pos)
	}
	return &Simulator{
		world:       w,
		controllers: controllers,
		net:         net,
		metrics:     collector,
		maxTicks:    maxTicks,
		logger:      logger,
	}
}

// Run drives the tick loop to termination: either every agent reaches its
// goal, or the tick count reaches maxTicks. It returns the final metrics
// snapshot.
func (s *Simulator) Run(ctx context.Context) metrics.Snapshot {
	s.metrics.StartTimer()
	for {
		tick := s.world.CurrentTick()
		if s.world.AllAtGoal() || tick >= s.maxTicks {
			s.metrics.SetMakespan(tick)
			break
		}
		s.runTick(ctx, tick)
		s.world.AdvanceTick()
	}
	s.metrics.StopTimer()

	snapshot := s.metrics.Snapshot()
	simulation.RunCompleted(ctx, s.logger, s.world.CurrentTick(), simulation.RunCompletedPayload{
		Makespan:          snapshot.Makespan,
		CollisionDetected: snapshot.CollisionDetected,
		TotalReplans:      int(snapshot.TotalReplans),
	})
	return snapshot
}

// runTick executes the fixed phase order for a single tick.
func (s *Simulator) runTick(ctx context.Context, tick uint64) {
	s.receiveAndRebuild(ctx, tick)
	s.planAgents(ctx, tick)
	sentThisTick, droppedThisTick := s.broadcast(ctx, tick)
	replans := s.validateIntents(ctx, tick)
	s.resolveDeadlocks(ctx, tick)
	s.executeMoves()
	replans += s.auditCollisions(ctx, tick)
	s.recordTrace(tick, sentThisTick)

	simulation.TickCompleted(ctx, s.logger, tick, simulation.TickCompletedPayload{
		ActiveAgents:    s.world.ActiveAgentCount(),
		MessagesSent:    sentThisTick,
		MessagesDropped: droppedThisTick,
		ReplansThisTick: replans,
	})
}

// receiveAndRebuild implements phase 1: every agent drains its inbox,
// rebuilds its local reservation view, and checks the freshly received
// path announcements for a future conflict against its own plan.
func (s *Simulator) receiveAndRebuild(ctx context.Context, tick uint64) {
	for _, id := range s.world.AgentIDs() {
		c := s.controllers[id]
		messages := s.net.Receive(id, tick)
		c.RebuildLocalReservations(tick, messages)

		state := s.world.Agent(id)
		if state.AtGoal {
			continue
		}

		freshFrom := make(map[ids.AgentID]struct{}, len(messages))
		for _, msg := range messages {
			freshFrom[msg.From] = struct{}{}
			if c.DetectFutureConflict(state, msg) {
				coordination.FutureConflictYield(ctx, s.logger, tick, actorRef(id), coordination.FutureConflictYieldPayload{
					YieldedTo: msg.From.String(),
				})
			}
		}
		if peer, yielded := c.DetectKnownConflict(state, freshFrom); yielded {
			coordination.FutureConflictYield(ctx, s.logger, tick, actorRef(id), coordination.FutureConflictYieldPayload{
				YieldedTo: peer.String(),
			})
		}
	}
}

// planAgents implements phase 2: every controller that needs a plan gets
// one, in parallel, against its own local reservation view only.
func (s *Simulator) planAgents(ctx context.Context, tick uint64) {
	g := s.world.Grid()
	var wg sync.WaitGroup
	for _, id := range s.world.AgentIDs() {
		c := s.controllers[id]
		state := s.world.Agent(id)
		if state.AtGoal || !c.NeedsPlanning() {
			continue
		}
		wg.Add(1)
		go func(id ids.AgentID, c *agent.Controller, state *world.AgentState) {
			defer wg.Done()
			c.Plan(g, state, tick)
			if c.State == agent.StateMoving {
				planning.PathFound(ctx, s.logger, tick, actorRef(id), planning.PathFoundPayload{
					Length:    len(state.RemainingPath()),
					StartTick: tick,
				})
				return
			}
			planning.PathUnreachable(ctx, s.logger, tick, actorRef(id), planning.PathUnreachablePayload{
				WaitCounter: c.WaitCounter,
				StartTick:   tick,
			})
		}(id, c, state)
	}
	wg.Wait()
}

// broadcast implements phase 3: every agent announces its intent (and,
// when due, a full state sync), each sent with the configured
// redundancy. It returns this tick's sent/dropped deltas as observed
// through the network's cumulative counters.
func (s *Simulator) broadcast(ctx context.Context, tick uint64) (sentThisTick, droppedThisTick int) {
	before := s.net.GetStats()
	for _, id := range s.world.AgentIDs() {
		c := s.controllers[id]
		state := s.world.Agent(id)

		announcement := c.BuildAnnouncement(state, tick)
		s.sendRedundant(ctx, tick, id, announcement)

		if c.ShouldSendStateSync(tick) {
			s.sendRedundant(ctx, tick, id, c.BuildStateSync(tick))
		}
	}
	after := s.net.GetStats()
	sentThisTick = int(after.Sent - before.Sent)
	droppedThisTick = int(after.Dropped - before.Dropped)

	for i := uint64(0); i < after.Sent-before.Sent; i++ {
		s.metrics.RecordMessageSent()
	}
	for i := uint64(0); i < after.Dropped-before.Dropped; i++ {
		s.metrics.RecordMessageDropped()
	}
	return sentThisTick, droppedThisTick
}

// sendRedundant sends Redundancy copies of msg and publishes a network
// event for every attempt: a sent event before the drop roll, and an
// additional dropped event when the simulated channel claims that copy.
func (s *Simulator) sendRedundant(ctx context.Context, tick uint64, from ids.AgentID, msg network.Message) {
	for i := 0; i < agent.Redundancy; i++ {
		netevents.MessageSent(ctx, s.logger, tick, actorRef(from), netevents.MessageSentPayload{
			Type:      string(msg.Type),
			Redundant: i,
		})
		if delivered := s.net.Send(msg); !delivered {
			netevents.MessageDropped(ctx, s.logger, tick, actorRef(from), netevents.MessageDroppedPayload{
				Type:      string(msg.Type),
				Redundant: i,
			})
		}
	}
}

// validateIntents implements phase 4: any cell targeted by two or more
// non-terminal agents forces all of them to replan immediately,
// sequentially, before execution.
func (s *Simulator) validateIntents(ctx context.Context, tick uint64) int {
	contenders := make(map[grid.Cell][]ids.AgentID)
	for _, id := range s.world.AgentIDs() {
		state := s.world.Agent(id)
		c := s.controllers[id]
		if state.AtGoal || c.State == agent.StateCollisionStopped {
			continue
		}
		next, ok := state.NextIntent()
		if !ok {
			continue
		}
		contenders[next] = append(contenders[next], id)
	}

	replans := 0
	g := s.world.Grid()
	for _, agents := range contenders {
		if len(agents) < 2 {
			continue
		}
		for _, id := range agents {
			c := s.controllers[id]
			c.TriggerReplan()
			s.metrics.RecordReplan()
			replans++
			planning.ReplanForced(ctx, s.logger, tick, actorRef(id), planning.ReplanForcedPayload{
				Reason: "intent_contention",
			})
			c.Plan(g, s.world.Agent(id), tick)
		}
	}
	return replans
}

// resolveDeadlocks implements phase 5: agents whose position has not
// changed for long enough are sorted by identity, and the lower-priority
// half is forcibly reset with a staggered wait.
func (s *Simulator) resolveDeadlocks(ctx context.Context, tick uint64) {
	var stuck []ids.AgentID
	for _, id := range s.world.AgentIDs() {
		state := s.world.Agent(id)
		if state.AtGoal {
			continue
		}
		c := s.controllers[id]
		c.UpdateDeadlockTracking(state.Pos, tick)
		if c.IsDeadlocked() {
			stuck = append(stuck, id)
		}
	}
	sort.Slice(stuck, func(i, j int) bool { return stuck[i].Less(stuck[j]) })

	lowerPriorityStart := len(stuck) / 2
	for i := lowerPriorityStart; i < len(stuck); i++ {
		id := stuck[i]
		c := s.controllers[id]
		state := s.world.Agent(id)
		stuckTicks := c.StuckCounter
		waitTicks := 3 + (i % 5)
		c.ResolveDeadlock(state, waitTicks)
		coordination.DeadlockResolved(ctx, s.logger, tick, actorRef(id), coordination.DeadlockResolvedPayload{
			StuckTicks:  stuckTicks,
			WaitCounter: waitTicks,
		})
	}
}

// executeMoves implements phase 6: every agent with a defined next
// intent writes it into the shared world simultaneously; a rejected move
// (an invalid or obstacle target, which sound planning should never
// produce) forces a replan instead.
func (s *Simulator) executeMoves() {
	type pendingMove struct {
		id ids.AgentID
		to grid.Cell
	}
	var moves []pendingMove
	for _, id := range s.world.AgentIDs() {
		state := s.world.Agent(id)
		c := s.controllers[id]
		if state.AtGoal || c.State == agent.StateCollisionStopped {
			continue
		}
		next, ok := state.NextIntent()
		if !ok {
			continue
		}
		moves = append(moves, pendingMove{id: id, to: next})
	}

	for _, m := range moves {
		if !s.world.TryMove(m.id, m.to) {
			s.controllers[m.id].TriggerReplan()
			continue
		}
		state := s.world.Agent(m.id)
		state.AdvancePathIndex()
		if state.AtGoal {
			s.controllers[m.id].MarkAtGoal()
		}
	}
}

// auditCollisions implements phase 7: agents left sharing a cell after
// execution are displaced to a free neighbor in E, W, S, N order, or
// latched collision-stopped if none is available.
func (s *Simulator) auditCollisions(ctx context.Context, tick uint64) int {
	replans := 0
	byCell := s.world.PositionsByCell()
	cells := make([]grid.Cell, 0, len(byCell))
	for cell := range byCell {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })

	for _, cell := range cells {
		occupants := byCell[cell]
		if len(occupants) < 2 {
			continue
		}
		s.metrics.RecordCollision()

		var displacedIDs, stoppedIDs []ids.AgentID
		for _, id := range occupants {
			displaced := s.tryDisplace(cell, id)
			c := s.controllers[id]
			if displaced {
				c.TriggerReplan()
				displacedIDs = append(displacedIDs, id)
			} else {
				c.MarkCollisionStopped(s.world.Agent(id))
				stoppedIDs = append(stoppedIDs, id)
			}
			s.metrics.RecordReplan()
			replans++
		}

		simulation.CollisionDetected(ctx, s.logger, tick, simulation.CollisionDetectedPayload{
			Cell:      [2]int{cell.X, cell.Y},
			AgentIDs:  agentIDStrings(occupants),
			Displaced: agentIDStrings(displacedIDs),
			Stopped:   agentIDStrings(stoppedIDs),
		})
	}
	return replans
}

func (s *Simulator) tryDisplace(cell grid.Cell, id ids.AgentID) bool {
	g := s.world.Grid()
	for _, off := range grid.DisplacementOffsets {
		candidate := cell.Add(off.X, off.Y)
		if !g.IsFree(candidate) || s.world.IsOccupied(candidate, id) {
			continue
		}
		if s.world.TryMove(id, candidate) {
			return true
		}
	}
	return false
}

// recordTrace implements phase 8: append this tick's per-agent positions
// to the metrics collector.
func (s *Simulator) recordTrace(tick uint64, sentThisTick int) {
	snapshot := s.world.Snapshot()
	positions := make([]metrics.AgentPosition, 0, len(snapshot))
	for _, a := range snapshot {
		positions = append(positions, metrics.AgentPosition{AgentID: a.ID, Pos: a.Pos, CollisionStopped: a.CollisionStopped})
	}
	trace := metrics.TickTrace{
		Tick:           tick,
		AgentPositions: positions,
		ActiveAgents:   s.world.ActiveAgentCount(),
		MessagesSent:   sentThisTick,
	}
	s.metrics.RecordTickTrace(trace)
	if s.traceObserver != nil {
		s.traceObserver(trace)
	}
}

func actorRef(id ids.AgentID) logging.EntityRef {
	return logging.EntityRef{ID: id.String(), Kind: logging.EntityKindAgent}
}

func agentIDStrings(agents []ids.AgentID) []string {
	if len(agents) == 0 {
		return nil
	}
	out := make([]string, len(agents))
	for i, id := range agents {
		out[i] = id.String()
	}
	return out
}
