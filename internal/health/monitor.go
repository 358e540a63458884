package health

import (
	"context"
	"runtime"
	"time"

	"clearpath/internal/broadcast"
	"clearpath/internal/events"
	"clearpath/internal/hub"
)

// Monitor samples the hub and publishes a system_health event on a fixed
// interval, so agent dashboards see the hub itself as a monitored component.
type Monitor struct {
	hub        *hub.Hub
	dispatcher *broadcast.Dispatcher
	interval   time.Duration
}

func NewMonitor(h *hub.Hub, d *broadcast.Dispatcher, interval time.Duration) *Monitor {
	return &Monitor{hub: h, dispatcher: d, interval: interval}
}

// Run blocks until ctx is cancelled. A zero interval disables the monitor.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.publish()
		}
	}
}

func (m *Monitor) publish() {
	subs := m.hub.SubscriberCounts()
	topics := make(map[string]any, len(subs))
	for topic, n := range subs {
		topics[topic] = n
	}
	_ = m.dispatcher.SystemHealth(events.SystemHealthData{
		Component: "websocket_hub",
		Status:    "healthy",
		Performance: map[string]any{
			"active_connections": m.hub.ConnectionCount(),
			"subscriptions":      topics,
			"goroutines":         runtime.NumGoroutine(),
		},
		LastCheck: time.Now().UTC(),
	})
}
