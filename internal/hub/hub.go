package hub

import (
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"clearpath/internal/events"

	"github.com/google/uuid"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSendQueueFull      = errors.New("send queue full")
)

const (
	defaultSendQueueSize = 64
	defaultWriteTimeout  = 10 * time.Second
)

// Transport is one duplex channel to a client. The hub is its only owner:
// nothing outside the connection's writer goroutine touches Write, and Close
// is only reached through Disconnect.
type Transport interface {
	Write(data []byte, deadline time.Time) error
	Close() error
}

// Auditor receives connection lifecycle events. Implementations must not
// block; the ledger store satisfies this.
type Auditor interface {
	ConnectionOpened(connID, userID, endpoint string, at time.Time)
	ConnectionClosed(connID, reason string, at time.Time)
}

type Options struct {
	SendQueueSize int
	WriteTimeout  time.Duration
	Auditor       Auditor
}

// Hub is the connection registry and subscription index. One coarse lock
// guards the three maps so a disconnect racing a publish can never hand out
// a half-removed connection.
type Hub struct {
	sendQueueSize int
	writeTimeout  time.Duration
	auditor       Auditor

	mu     sync.RWMutex
	conns  map[string]*conn
	topics map[string]map[string]struct{}
	users  map[string]map[string]struct{}
}

func New(opts Options) *Hub {
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = defaultSendQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	return &Hub{
		sendQueueSize: opts.SendQueueSize,
		writeTimeout:  opts.WriteTimeout,
		auditor:       opts.Auditor,
		conns:         map[string]*conn{},
		topics:        map[string]map[string]struct{}{},
		users:         map[string]map[string]struct{}{},
	}
}

// Connect registers a transport, starts its writer, and sends the one-time
// welcome message carrying the assigned connection id.
func (h *Hub) Connect(t Transport, userID, endpoint string) string {
	now := time.Now().UTC()
	c := &conn{
		id:           uuid.NewString(),
		userID:       userID,
		transport:    t,
		connectedAt:  now,
		lastActivity: now,
		subs:         map[string]struct{}{},
		out:          make(chan events.Envelope, h.sendQueueSize),
		done:         make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	if userID != "" {
		if _, ok := h.users[userID]; !ok {
			h.users[userID] = map[string]struct{}{}
		}
		h.users[userID][c.id] = struct{}{}
	}
	h.mu.Unlock()

	go h.writeLoop(c)

	log.Printf("hub event=connect conn=%s user=%s endpoint=%s", c.id, userID, endpoint)
	if h.auditor != nil {
		h.auditor.ConnectionOpened(c.id, userID, endpoint, now)
	}

	_ = h.Send(c.id, events.NewEnvelope(events.TypeSuccess, map[string]any{
		"message":       "Connected to ClearPath AI WebSocket",
		"connection_id": c.id,
	}))
	return c.id
}

// Disconnect tears a connection down: transport closed, registry entry and
// every index reference removed. Idempotent, and safe against in-flight
// sends to the same id.
func (h *Hub) Disconnect(connID, reason string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	for topic := range c.subs {
		if set, ok := h.topics[topic]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if c.userID != "" {
		if set, ok := h.users[c.userID]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(h.users, c.userID)
			}
		}
	}
	h.mu.Unlock()

	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.transport.Close()
	})

	log.Printf("hub event=disconnect conn=%s reason=%s", connID, reason)
	if h.auditor != nil {
		h.auditor.ConnectionClosed(connID, reason, time.Now().UTC())
	}
}

// Send serializes the envelope onto the connection's outbound queue without
// blocking. A missing connection reports ErrConnectionNotFound; a full queue
// disconnects the laggard and reports ErrSendQueueFull. Never panics past
// this boundary.
func (h *Hub) Send(connID string, env events.Envelope) error {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}
	select {
	case c.out <- env:
		return nil
	case <-c.done:
		return ErrConnectionNotFound
	default:
		log.Printf("hub event=send_overflow conn=%s queue=%d", connID, h.sendQueueSize)
		h.Disconnect(connID, "send_queue_overflow")
		return ErrSendQueueFull
	}
}

func (h *Hub) writeLoop(c *conn) {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.out:
			data, err := json.Marshal(env)
			if err != nil {
				log.Printf("hub event=marshal_failed conn=%s type=%s err=%v", c.id, env.Type, err)
				continue
			}
			if err := c.transport.Write(data, time.Now().Add(h.writeTimeout)); err != nil {
				log.Printf("hub event=write_failed conn=%s err=%v", c.id, err)
				h.Disconnect(c.id, "write_failed")
				return
			}
			c.touch()
		}
	}
}

// Subscribe adds the connection to a topic. Idempotent; the topic springs
// into existence on first use.
func (h *Hub) Subscribe(connID, topic string) error {
	if topic == "" {
		return errors.New("subscription_type is required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return ErrConnectionNotFound
	}
	c.subs[topic] = struct{}{}
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = map[string]struct{}{}
	}
	h.topics[topic][connID] = struct{}{}
	return nil
}

// Unsubscribe is the symmetric removal; unsubscribing a topic the connection
// never joined is a no-op.
func (h *Hub) Unsubscribe(connID, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return ErrConnectionNotFound
	}
	delete(c.subs, topic)
	if set, ok := h.topics[topic]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
	return nil
}

// ConnectionsForTopic returns a best-effort snapshot of the topic's live
// subscribers. A missing topic and an empty one read the same.
func (h *Hub) ConnectionsForTopic(topic string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return setKeys(h.topics[topic])
}

// ConnectionsForUser returns a snapshot of the user's live connections.
func (h *Hub) ConnectionsForUser(userID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return setKeys(h.users[userID])
}

// AllConnections returns a snapshot of every live connection id.
func (h *Hub) AllConnections() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.conns))
	for id := range h.conns {
		out = append(out, id)
	}
	return out
}

// Info reports a connection's metadata and current subscriptions.
func (h *Hub) Info(connID string) (events.ConnectionInfoData, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return events.ConnectionInfoData{}, ErrConnectionNotFound
	}
	return c.info(), nil
}

// ListConnections reports metadata for every live connection, ordered by
// connect time for stable admin output.
func (h *Hub) ListConnections() []events.ConnectionInfoData {
	h.mu.RLock()
	out := make([]events.ConnectionInfoData, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c.info())
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SubscriberCounts reports the per-topic subscriber counts.
func (h *Hub) SubscriberCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.topics))
	for topic, set := range h.topics {
		out[topic] = len(set)
	}
	return out
}

func setKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
