package network

import (
	"testing"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
)

func TestSendNeverDeliversToSender(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{}, 1)

	n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0})

	if got := n.Receive(a, 5); len(got) != 0 {
		t.Fatalf("sender received its own broadcast: %+v", got)
	}
	if got := n.Receive(b, 5); len(got) != 1 {
		t.Fatalf("peer expected 1 message, got %d", len(got))
	}
}

func TestZeroLatencyDeliversNextTick(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{}, 1)

	n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 10})

	if got := n.Receive(b, 10); len(got) != 0 {
		t.Fatalf("expected no delivery at send tick, got %d", len(got))
	}
	if got := n.Receive(b, 11); len(got) != 1 {
		t.Fatalf("expected delivery at send tick + 1, got %d", len(got))
	}
}

func TestReceiveIsNonBlockingAndDrainsInOrder(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{}, 1)

	n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0, Next: grid.Cell{X: 1}})
	n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0, Next: grid.Cell{X: 2}})

	got := n.Receive(b, 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 queued messages, got %d", len(got))
	}
	if got[0].Next.X != 1 || got[1].Next.X != 2 {
		t.Fatalf("expected send order preserved, got %+v", got)
	}
	if more := n.Receive(b, 1); len(more) != 0 {
		t.Fatalf("expected queue drained, got %d more", len(more))
	}
}

func TestAllDropsAreCounted(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{DropProbability: 1.0}, 1)

	for i := 0; i < 10; i++ {
		n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: uint64(i)})
	}

	stats := n.GetStats()
	if stats.Sent != 10 || stats.Dropped != 10 {
		t.Fatalf("expected 10 sent and 10 dropped, got %+v", stats)
	}
	if got := n.Receive(b, 100); len(got) != 0 {
		t.Fatalf("expected no deliveries when drop probability is 1, got %d", len(got))
	}
}

func TestSendReportsDeliveryOutcome(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()

	delivered := New([]ids.AgentID{a, b}, Params{DropProbability: 0}, 1)
	if ok := delivered.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0}); !ok {
		t.Fatalf("expected Send to report delivered when drop probability is 0")
	}

	dropped := New([]ids.AgentID{a, b}, Params{DropProbability: 1}, 1)
	if ok := dropped.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0}); ok {
		t.Fatalf("expected Send to report dropped when drop probability is 1")
	}
}

func TestNoDropsDeliverAll(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{DropProbability: 0}, 1)

	for i := 0; i < 5; i++ {
		n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0})
	}
	if got := n.Receive(b, 1); len(got) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(got))
	}
	stats := n.GetStats()
	if stats.Dropped != 0 {
		t.Fatalf("expected 0 drops, got %d", stats.Dropped)
	}
}

func TestJitteredLatencyNeverDeliversBeforeSendTick(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{MeanLatencyMs: 40, JitterMs: 30}, 7)

	for i := 0; i < 50; i++ {
		n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 100})
	}
	if got := n.Receive(b, 100); len(got) != 0 {
		t.Fatalf("expected no delivery at send tick under nonzero latency, got %d", len(got))
	}
}

func TestResetClearsQueuesAndStats(t *testing.T) {
	a, b := ids.NewAgentID(), ids.NewAgentID()
	n := New([]ids.AgentID{a, b}, Params{}, 1)
	n.Send(Message{From: a, Type: PathAnnouncement, Timestamp: 0})

	n.Reset()

	if stats := n.GetStats(); stats.Sent != 0 || stats.Dropped != 0 {
		t.Fatalf("expected zeroed stats after reset, got %+v", stats)
	}
	if got := n.Receive(b, 100); len(got) != 0 {
		t.Fatalf("expected empty queue after reset, got %d", len(got))
	}
}
