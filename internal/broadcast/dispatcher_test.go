package broadcast

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"clearpath/internal/events"
	"clearpath/internal/hub"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type captureTransport struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newCaptureTransport() *captureTransport {
	return &captureTransport{
		frames: make(chan []byte, 32),
		closed: make(chan struct{}),
	}
}

func (t *captureTransport) Write(data []byte, _ time.Time) error {
	t.frames <- data
	return nil
}

func (t *captureTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *captureTransport) next(tb testing.TB) frame {
	tb.Helper()
	select {
	case data := <-t.frames:
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			tb.Fatalf("unmarshal frame: %v", err)
		}
		return f
	case <-time.After(2 * time.Second):
		tb.Fatalf("timed out waiting for frame")
	}
	return frame{}
}

func (t *captureTransport) expectType(tb testing.TB, typ string) frame {
	tb.Helper()
	f := t.next(tb)
	if f.Type != typ {
		tb.Fatalf("frame type = %q, want %q (data: %s)", f.Type, typ, f.Data)
	}
	return f
}

type tallyRecorder struct {
	mu      sync.Mutex
	entries map[string][2]int
}

func newTallyRecorder() *tallyRecorder {
	return &tallyRecorder{entries: map[string][2]int{}}
}

func (r *tallyRecorder) RecordDelivery(topic string, sent, failed int) {
	r.mu.Lock()
	prev := r.entries[topic]
	r.entries[topic] = [2]int{prev[0] + sent, prev[1] + failed}
	r.mu.Unlock()
}

func (r *tallyRecorder) get(topic string) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[topic]
	return e[0], e[1]
}

// subscriber registers a connection on the given topics and drains its
// welcome message.
func subscriber(t *testing.T, h *hub.Hub, userID string, topics ...string) *captureTransport {
	t.Helper()
	tr := newCaptureTransport()
	connID := h.Connect(tr, userID, "test")
	tr.expectType(t, events.TypeSuccess)
	for _, topic := range topics {
		if err := h.Subscribe(connID, topic); err != nil {
			t.Fatalf("Subscribe %s: %v", topic, err)
		}
	}
	return tr
}

func TestPackageUpdateFanOut(t *testing.T) {
	h := hub.New(hub.Options{})
	rec := newTallyRecorder()
	d := New(h, rec)

	a := subscriber(t, h, "", events.TopicPackageUpdates, events.TopicAnomalies)
	b := subscriber(t, h, "", events.TopicPackageUpdates)
	c := subscriber(t, h, "", events.TopicAnomalies)

	err := d.PackageUpdate(events.PackageUpdateData{
		PackageID:      "PKG-1",
		TrackingNumber: "1Z999",
		Status:         "in_transit",
	})
	if err != nil {
		t.Fatalf("PackageUpdate: %v", err)
	}

	for _, tr := range []*captureTransport{a, b} {
		f := tr.expectType(t, events.TypePackageUpdate)
		var data events.PackageUpdateData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if data.PackageID != "PKG-1" {
			t.Fatalf("package_id = %q", data.PackageID)
		}
	}

	// c must not have seen the package update: the next event it receives is
	// an anomaly published afterwards.
	if err := d.AnomalyDetected(events.AnomalyData{
		PackageID:   "PKG-1",
		AnomalyType: "stuck_in_transit",
		Severity:    "medium",
		Description: "no scan for 48 hours",
	}); err != nil {
		t.Fatalf("AnomalyDetected: %v", err)
	}
	c.expectType(t, events.TypeAnomalyDetected)

	if sent, failed := rec.get(events.TopicPackageUpdates); sent != 2 || failed != 0 {
		t.Fatalf("package_updates tally = %d/%d, want 2/0", sent, failed)
	}
}

func TestAnomalyDefaultsDetectedAt(t *testing.T) {
	h := hub.New(hub.Options{})
	d := New(h, nil)
	tr := subscriber(t, h, "", events.TopicAnomalies)

	if err := d.AnomalyDetected(events.AnomalyData{
		PackageID:   "PKG-2",
		AnomalyType: "route_deviation",
		Severity:    "high",
		Description: "left planned corridor",
	}); err != nil {
		t.Fatalf("AnomalyDetected: %v", err)
	}

	f := tr.expectType(t, events.TypeAnomalyDetected)
	var data events.AnomalyData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.DetectedAt.IsZero() {
		t.Fatalf("detected_at not defaulted")
	}
}

func TestNotificationTargetsUser(t *testing.T) {
	h := hub.New(hub.Options{})
	d := New(h, nil)

	u1a := subscriber(t, h, "user-1")
	u1b := subscriber(t, h, "user-1")
	other := subscriber(t, h, "user-2", events.TopicNotifications)

	targeted := events.NotificationData{
		ID:       "n-1",
		Title:    "Your package",
		Message:  "PKG-1 is delayed",
		Priority: "high",
		Category: "delays",
		UserID:   "user-1",
	}
	if err := d.Notification(targeted); err != nil {
		t.Fatalf("Notification: %v", err)
	}

	for _, tr := range []*captureTransport{u1a, u1b} {
		f := tr.expectType(t, events.TypeNotification)
		var data events.NotificationData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if data.ID != "n-1" {
			t.Fatalf("notification id = %q", data.ID)
		}
	}

	// The untargeted broadcast reaches the topic subscriber; it must be the
	// first thing user-2 sees, proving the targeted one skipped them.
	broadcast := targeted
	broadcast.ID = "n-2"
	broadcast.UserID = ""
	if err := d.Notification(broadcast); err != nil {
		t.Fatalf("Notification broadcast: %v", err)
	}
	f := other.expectType(t, events.TypeNotification)
	var data events.NotificationData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.ID != "n-2" {
		t.Fatalf("user-2 first notification id = %q, want n-2", data.ID)
	}
}

func TestValidationRejectsBeforeFanOut(t *testing.T) {
	h := hub.New(hub.Options{})
	rec := newTallyRecorder()
	d := New(h, rec)
	subscriber(t, h, "", events.TopicPackageUpdates)

	if err := d.PackageUpdate(events.PackageUpdateData{Status: "in_transit"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if sent, failed := rec.get(events.TopicPackageUpdates); sent != 0 || failed != 0 {
		t.Fatalf("recorder touched by rejected publish: %d/%d", sent, failed)
	}
}

func TestPublishAfterDisconnect(t *testing.T) {
	h := hub.New(hub.Options{})
	d := New(h, nil)
	tr := newCaptureTransport()
	connID := h.Connect(tr, "", "test")
	tr.expectType(t, events.TypeSuccess)
	if err := h.Subscribe(connID, events.TopicMapUpdates); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	h.Disconnect(connID, "client_closed")

	// Publisher never observes the dead subscriber.
	if err := d.MapUpdate(events.MapUpdateData{
		PackageID:   "PKG-3",
		Coordinates: events.Coordinates{Lat: 40.7, Lng: -74.0},
		Status:      "in_transit",
	}); err != nil {
		t.Fatalf("MapUpdate after disconnect: %v", err)
	}
}

func TestInvestigationStartedDefaultsAgent(t *testing.T) {
	h := hub.New(hub.Options{})
	d := New(h, nil)
	tr := subscriber(t, h, "", events.TopicAgentActivity)

	if err := d.InvestigationStarted("PKG-4", "lost_package", ""); err != nil {
		t.Fatalf("InvestigationStarted: %v", err)
	}

	f := tr.expectType(t, events.TypeAgentActivity)
	var data events.AgentActivityData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.AgentID != defaultInvestigatorAgent {
		t.Fatalf("agent_id = %q, want %q", data.AgentID, defaultInvestigatorAgent)
	}
	if data.Action != "investigation_started" || data.Status != "active" {
		t.Fatalf("activity = %+v", data)
	}
	if data.PerformanceMetrics["investigation_type"] != "lost_package" {
		t.Fatalf("metrics = %v", data.PerformanceMetrics)
	}

	if err := d.InvestigationStarted("", "lost_package", ""); err == nil {
		t.Fatalf("expected error for missing package id")
	}
}

func TestInvestigationCompletedEmitsTwoMessages(t *testing.T) {
	h := hub.New(hub.Options{})
	d := New(h, nil)
	tr := subscriber(t, h, "", events.TopicAgentActivity, events.TopicRecoverySuggestions)

	report := InvestigationReport{
		PackageID:       "PKG-5",
		InvestigationID: "inv-42",
		Findings:        []string{"misrouted at hub"},
		Recommendations: []string{"reroute via regional center", "notify customer"},
		ConfidenceScore: 0.9,
		AgentID:         "agent-7",
	}
	if err := d.InvestigationCompleted(report); err != nil {
		t.Fatalf("InvestigationCompleted: %v", err)
	}

	f := tr.expectType(t, events.TypeAgentActivity)
	var activity events.AgentActivityData
	if err := json.Unmarshal(f.Data, &activity); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}
	if activity.Action != "investigation_completed" || activity.Status != "completed" {
		t.Fatalf("activity = %+v", activity)
	}
	if activity.PerformanceMetrics["investigation_id"] != "inv-42" {
		t.Fatalf("metrics = %v", activity.PerformanceMetrics)
	}
	if got := activity.PerformanceMetrics["recommendations_count"]; got != float64(2) {
		t.Fatalf("recommendations_count = %v", got)
	}

	f = tr.expectType(t, events.TypeRecoverySuggestion)
	var suggestion events.RecoverySuggestionData
	if err := json.Unmarshal(f.Data, &suggestion); err != nil {
		t.Fatalf("unmarshal suggestion: %v", err)
	}
	if suggestion.PackageID != "PKG-5" || suggestion.Issue != "AI Investigation Complete" {
		t.Fatalf("suggestion = %+v", suggestion)
	}
	if suggestion.AISuggestion["investigation_id"] != "inv-42" {
		t.Fatalf("ai_suggestion = %v", suggestion.AISuggestion)
	}
	if suggestion.Confidence != 0.9 {
		t.Fatalf("confidence = %v", suggestion.Confidence)
	}
}

func TestInvestigationCompletedValidation(t *testing.T) {
	d := New(hub.New(hub.Options{}), nil)

	if err := d.InvestigationCompleted(InvestigationReport{InvestigationID: "inv-1"}); err == nil {
		t.Fatalf("expected error for missing package id")
	}
	if err := d.InvestigationCompleted(InvestigationReport{PackageID: "PKG-1"}); err == nil {
		t.Fatalf("expected error for missing investigation id")
	}
	if err := d.InvestigationCompleted(InvestigationReport{
		PackageID:       "PKG-1",
		InvestigationID: "inv-1",
		ConfidenceScore: 1.2,
	}); err == nil {
		t.Fatalf("expected error for confidence out of range")
	}
}
