package broadcast

import (
	"fmt"
	"log"
	"sync"
	"time"

	"clearpath/internal/events"
	"clearpath/internal/hub"
)

// Recorder receives per-topic delivery tallies. Implementations must not
// block; the ledger store satisfies this.
type Recorder interface {
	RecordDelivery(topic string, sent, failed int)
}

// Dispatcher exposes one typed publish method per event kind. Every method
// validates the payload up front, then fans the envelope out to the topic's
// subscribers fire-and-forget: recipient failures are routed to that one
// connection's teardown and never surface to the publisher.
type Dispatcher struct {
	hub      *hub.Hub
	recorder Recorder
}

func New(h *hub.Hub, rec Recorder) *Dispatcher {
	return &Dispatcher{hub: h, recorder: rec}
}

func (d *Dispatcher) PackageUpdate(data events.PackageUpdateData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("package update: %w", err)
	}
	env := events.NewEnvelope(events.TypePackageUpdate, data)
	n := d.broadcastToTopic(events.TopicPackageUpdates, env)
	log.Printf("broadcast event=package_update package=%s status=%s recipients=%d", data.PackageID, data.Status, n)
	return nil
}

func (d *Dispatcher) AnomalyDetected(data events.AnomalyData) error {
	if data.DetectedAt.IsZero() {
		data.DetectedAt = time.Now().UTC()
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("anomaly: %w", err)
	}
	env := events.NewEnvelope(events.TypeAnomalyDetected, data)
	n := d.broadcastToTopic(events.TopicAnomalies, env)
	log.Printf("broadcast event=anomaly_detected package=%s type=%s severity=%s recipients=%d", data.PackageID, data.AnomalyType, data.Severity, n)
	return nil
}

func (d *Dispatcher) RecoverySuggestion(data events.RecoverySuggestionData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("recovery suggestion: %w", err)
	}
	env := events.NewEnvelope(events.TypeRecoverySuggestion, data)
	n := d.broadcastToTopic(events.TopicRecoverySuggestions, env)
	log.Printf("broadcast event=recovery_suggestion package=%s recipients=%d", data.PackageID, n)
	return nil
}

func (d *Dispatcher) DashboardMetrics(data events.DashboardMetricsData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("dashboard metrics: %w", err)
	}
	env := events.NewEnvelope(events.TypeDashboardMetrics, data)
	n := d.broadcastToTopic(events.TopicDashboardMetrics, env)
	log.Printf("broadcast event=dashboard_metrics total=%d recipients=%d", data.TotalPackages, n)
	return nil
}

func (d *Dispatcher) AgentActivity(data events.AgentActivityData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("agent activity: %w", err)
	}
	env := events.NewEnvelope(events.TypeAgentActivity, data)
	n := d.broadcastToTopic(events.TopicAgentActivity, env)
	log.Printf("broadcast event=agent_activity agent=%s action=%s recipients=%d", data.AgentID, data.Action, n)
	return nil
}

// Notification is the only user-targeted kind: with a user id it goes to
// exactly that user's connections, otherwise to the notifications topic.
func (d *Dispatcher) Notification(data events.NotificationData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	env := events.NewEnvelope(events.TypeNotification, data)
	var n int
	if data.UserID != "" {
		n = d.deliver(events.TopicNotifications, d.hub.ConnectionsForUser(data.UserID), env)
	} else {
		n = d.broadcastToTopic(events.TopicNotifications, env)
	}
	log.Printf("broadcast event=notification id=%s user=%s recipients=%d", data.ID, data.UserID, n)
	return nil
}

func (d *Dispatcher) MapUpdate(data events.MapUpdateData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("map update: %w", err)
	}
	env := events.NewEnvelope(events.TypeMapUpdate, data)
	n := d.broadcastToTopic(events.TopicMapUpdates, env)
	log.Printf("broadcast event=map_update package=%s recipients=%d", data.PackageID, n)
	return nil
}

func (d *Dispatcher) SystemHealth(data events.SystemHealthData) error {
	if data.LastCheck.IsZero() {
		data.LastCheck = time.Now().UTC()
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("system health: %w", err)
	}
	env := events.NewEnvelope(events.TypeSystemHealth, data)
	n := d.broadcastToTopic(events.TopicSystemHealth, env)
	log.Printf("broadcast event=system_health component=%s status=%s recipients=%d", data.Component, data.Status, n)
	return nil
}

// broadcastToTopic fans one envelope out to every subscriber concurrently.
// One stalled or dead peer never delays the rest; each failure tears down
// only that connection.
func (d *Dispatcher) broadcastToTopic(topic string, env events.Envelope) int {
	return d.deliver(topic, d.hub.ConnectionsForTopic(topic), env)
}

func (d *Dispatcher) deliver(topic string, targets []string, env events.Envelope) int {
	if len(targets) == 0 {
		if d.recorder != nil {
			d.recorder.RecordDelivery(topic, 0, 0)
		}
		return 0
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent, failed := 0, 0
	for _, connID := range targets {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := d.hub.Send(id, env)
			mu.Lock()
			if err != nil {
				failed++
			} else {
				sent++
			}
			mu.Unlock()
		}(connID)
	}
	wg.Wait()
	if d.recorder != nil {
		d.recorder.RecordDelivery(topic, sent, failed)
	}
	return sent
}
