// Package wsstream exposes the running simulation's tick trace to
// external spectators over a websocket. It is transport plumbing only: it
// serializes TickTrace values the core engine already produces and draws
// nothing itself.
package wsstream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"swarmgrid/internal/metrics"
)

// sendBufferSize bounds how many trace records a slow spectator can lag
// behind before its updates start being dropped.
const sendBufferSize = 32

// Broadcaster fans out every published TickTrace to every connected
// spectator. Each session owns a dedicated write-pump goroutine so no two
// goroutines ever call WriteMessage on the same connection concurrently.
type Broadcaster struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
}

type session struct {
	conn *websocket.Conn
	send chan []byte
}

// New constructs a Broadcaster. A nil logger falls back to log.Default().
func New(logger *log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.Default()
	}
	return &Broadcaster{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[*session]struct{}),
	}
}

// Handle upgrades an HTTP connection to a websocket and registers it as a
// spectator for the lifetime of the connection. It blocks until the
// client disconnects, so callers should invoke it from its own goroutine
// per request (an http.HandlerFunc does this naturally).
func (b *Broadcaster) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Printf("wsstream: upgrade failed: %v", err)
		return
	}

	sess := &session{conn: conn, send: make(chan []byte, sendBufferSize)}
	b.register(sess)
	go b.writePump(sess)
	b.readPump(sess)
}

func (b *Broadcaster) register(sess *session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sess] = struct{}{}
}

func (b *Broadcaster) unregister(sess *session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sessions[sess]; ok {
		delete(b.sessions, sess)
		close(sess.send)
	}
}

// writePump is the only goroutine permitted to write to sess.conn.
func (b *Broadcaster) writePump(sess *session) {
	defer sess.conn.Close()
	for data := range sess.send {
		if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump discards spectator input — this stream is one-way — and exists
// only to detect the connection closing.
func (b *Broadcaster) readPump(sess *session) {
	defer b.unregister(sess)
	for {
		if _, _, err := sess.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish serializes a tick trace and enqueues it for every connected
// spectator. A session whose buffer is full has its update dropped rather
// than blocking the caller (the tick loop).
func (b *Broadcaster) Publish(trace metrics.TickTrace) {
	data, err := json.Marshal(toWireTrace(trace))
	if err != nil {
		b.logger.Printf("wsstream: failed to marshal trace: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sess := range b.sessions {
		select {
		case sess.send <- data:
		default:
			b.logger.Printf("wsstream: dropping trace for a slow spectator")
		}
	}
}

// Close disconnects every spectator.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sess := range b.sessions {
		delete(b.sessions, sess)
		close(sess.send)
		sess.conn.Close()
	}
}

type wirePosition struct {
	AgentID          string `json:"agentId"`
	X                int    `json:"x"`
	Y                int    `json:"y"`
	CollisionStopped bool   `json:"collisionStopped"`
}

type wireTrace struct {
	Tick         uint64         `json:"tick"`
	Positions    []wirePosition `json:"positions"`
	ActiveAgents int            `json:"activeAgents"`
	MessagesSent int            `json:"messagesSent"`
}

func toWireTrace(trace metrics.TickTrace) wireTrace {
	positions := make([]wirePosition, len(trace.AgentPositions))
	for i, p := range trace.AgentPositions {
		positions[i] = wirePosition{AgentID: p.AgentID.String(), X: p.Pos.X, Y: p.Pos.Y, CollisionStopped: p.CollisionStopped}
	}
	return wireTrace{
		Tick:         trace.Tick,
		Positions:    positions,
		ActiveAgents: trace.ActiveAgents,
		MessagesSent: trace.MessagesSent,
	}
}
