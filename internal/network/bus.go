package network

import (
	"container/heap"
	"math"
	"math/rand"
	"sync"

	"swarmgrid/internal/ids"
)

// Params configures the simulated channel's loss and delay behavior.
type Params struct {
	DropProbability float64
	MeanLatencyMs   int
	JitterMs        int
}

// Stats is the cumulative send/drop counters returned by GetStats.
type Stats struct {
	Sent    uint64
	Dropped uint64
}

// msPerTick is the wall-clock duration a single simulation tick
// represents when converting a sampled latency into a delivery-tick
// delay.
const msPerTick = 100

type delayedMessage struct {
	msg          Message
	deliveryTick uint64
	seq          uint64 // insertion order, breaks delivery-tick ties deterministically
}

type deliveryQueue []delayedMessage

func (q deliveryQueue) Len() int { return len(q) }
func (q deliveryQueue) Less(i, j int) bool {
	if q[i].deliveryTick != q[j].deliveryTick {
		return q[i].deliveryTick < q[j].deliveryTick
	}
	return q[i].seq < q[j].seq
}
func (q deliveryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *deliveryQueue) Push(x any)   { *q = append(*q, x.(delayedMessage)) }
func (q *deliveryQueue) Pop() any {
	old := *q
	last := len(old) - 1
	item := old[last]
	*q = old[:last]
	return item
}

// Network is a simulated lossy, delayed broadcast bus. Every registered
// agent has an independent delivery queue; a single Send call performs
// exactly one Bernoulli drop trial and, if not dropped, enqueues the
// message onto every peer's queue at a delivery tick derived from the
// configured latency model.
type Network struct {
	mu      sync.Mutex
	params  Params
	rng     *rand.Rand
	peers   []ids.AgentID
	queues  map[ids.AgentID]*deliveryQueue
	nextSeq uint64
	sent    uint64
	dropped uint64
}

// New constructs a network bus for the given peer roster, seeded
// deterministically.
func New(peers []ids.AgentID, params Params, seed int64) *Network {
	n := &Network{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
		peers:  append([]ids.AgentID(nil), peers...),
		queues: make(map[ids.AgentID]*deliveryQueue, len(peers)),
	}
	for _, p := range peers {
		q := &deliveryQueue{}
		heap.Init(q)
		n.queues[p] = q
	}
	return n
}

// Send enqueues one delivery attempt. It independently drops with
// probability params.DropProbability; otherwise the message is delivered
// to every peer except msg.From at a tick computed from the latency
// model. It reports whether the attempt was delivered (false means the
// drop roll claimed it).
func (n *Network) Send(msg Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent++
	if n.rng.Float64() < n.params.DropProbability {
		n.dropped++
		return false
	}

	deliveryTick := n.calculateDeliveryTick(msg.Timestamp)
	for _, peer := range n.peers {
		if peer == msg.From {
			continue
		}
		q, ok := n.queues[peer]
		if !ok {
			continue
		}
		n.nextSeq++
		heap.Push(q, delayedMessage{msg: msg, deliveryTick: deliveryTick, seq: n.nextSeq})
	}
	return true
}

func (n *Network) calculateDeliveryTick(sendTick uint64) uint64 {
	if n.params.MeanLatencyMs == 0 && n.params.JitterMs == 0 {
		return sendTick + 1
	}
	latencyMs := n.rng.NormFloat64()*float64(n.params.JitterMs) + float64(n.params.MeanLatencyMs)
	if latencyMs < 0 {
		latencyMs = 0
	}
	latencyTicks := uint64(math.Floor(latencyMs/msPerTick)) + 1
	return sendTick + latencyTicks
}

// Receive returns every message queued for agentID whose delivery tick is
// at or before currentTick, in delivery-tick order (ties broken by send
// order), removing them from the queue. It never returns messages
// authored by agentID (Send already excludes the sender from fan-out, so
// this is a defensive invariant, not a filter that fires in practice).
func (n *Network) Receive(agentID ids.AgentID, currentTick uint64) []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	q, ok := n.queues[agentID]
	if !ok {
		return nil
	}
	var out []Message
	for q.Len() > 0 {
		next := (*q)[0]
		if next.deliveryTick > currentTick {
			break
		}
		heap.Pop(q)
		if next.msg.From == agentID {
			continue
		}
		out = append(out, next.msg)
	}
	return out
}

// Reset empties every queue and zeroes the cumulative counters.
func (n *Network) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, q := range n.queues {
		*q = (*q)[:0]
	}
	n.sent = 0
	n.dropped = 0
}

// GetStats returns the cumulative sent/dropped counters since the last
// Reset.
func (n *Network) GetStats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Stats{Sent: n.sent, Dropped: n.dropped}
}
