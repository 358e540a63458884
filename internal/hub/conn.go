package hub

import (
	"sync"
	"time"

	"clearpath/internal/events"
)

// conn is one registered connection. id and userID are immutable after
// Connect; subs is guarded by the hub lock; the activity timestamp has its
// own mutex because the writer goroutine touches it outside the hub lock.
type conn struct {
	id          string
	userID      string
	transport   Transport
	connectedAt time.Time

	subs map[string]struct{}

	out       chan events.Envelope
	done      chan struct{}
	closeOnce sync.Once

	actMu        sync.Mutex
	lastActivity time.Time
}

func (c *conn) touch() {
	c.actMu.Lock()
	c.lastActivity = time.Now().UTC()
	c.actMu.Unlock()
}

func (c *conn) activity() time.Time {
	c.actMu.Lock()
	defer c.actMu.Unlock()
	return c.lastActivity
}

// info snapshots the connection metadata. Caller holds the hub lock (subs).
func (c *conn) info() events.ConnectionInfoData {
	subs := make([]string, 0, len(c.subs))
	for topic := range c.subs {
		subs = append(subs, topic)
	}
	return events.ConnectionInfoData{
		ConnectionID:  c.id,
		UserID:        c.userID,
		ConnectedAt:   c.connectedAt,
		LastActivity:  c.activity(),
		Subscriptions: subs,
	}
}
