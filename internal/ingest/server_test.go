package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"clearpath/internal/broadcast"
	"clearpath/internal/events"
	"clearpath/internal/hub"
	"clearpath/internal/rpc/eventbus"
)

type nopTransport struct{}

func (nopTransport) Write([]byte, time.Time) error { return nil }
func (nopTransport) Close() error                  { return nil }

func newTestServer(t *testing.T) (*Server, *hub.Hub) {
	t.Helper()
	h := hub.New(hub.Options{})
	return NewServer(h, broadcast.New(h, nil)), h
}

func TestPublishPackageUpdateAccepted(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.PublishPackageUpdate(context.Background(), &events.PackageUpdateData{
		PackageID:      "PKG-1",
		TrackingNumber: "1Z999",
		Status:         "in_transit",
	})
	if err != nil {
		t.Fatalf("PublishPackageUpdate: %v", err)
	}
	if !resp.Accepted || resp.Error != "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestPublishRejectsInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.PublishPackageUpdate(context.Background(), &events.PackageUpdateData{
		Status: "in_transit",
	})
	if err != nil {
		t.Fatalf("PublishPackageUpdate: %v", err)
	}
	if resp.Accepted {
		t.Fatalf("invalid payload accepted")
	}
	if !strings.Contains(resp.Error, "package_id is required") {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestPublishNotificationAccepted(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.PublishNotification(context.Background(), &events.NotificationData{
		ID:       "n-1",
		Title:    "Delay",
		Message:  "PKG-1 delayed",
		Priority: "high",
		Category: "delays",
	})
	if err != nil {
		t.Fatalf("PublishNotification: %v", err)
	}
	if !resp.Accepted {
		t.Fatalf("response = %+v", resp)
	}
}

func TestInvestigationRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := srv.InvestigationStarted(ctx, &eventbus.InvestigationStartedRequest{
		PackageID:         "PKG-2",
		InvestigationType: "lost_package",
	})
	if err != nil {
		t.Fatalf("InvestigationStarted: %v", err)
	}
	if !resp.Accepted {
		t.Fatalf("response = %+v", resp)
	}

	resp, err = srv.InvestigationStarted(ctx, &eventbus.InvestigationStartedRequest{
		InvestigationType: "lost_package",
	})
	if err != nil {
		t.Fatalf("InvestigationStarted: %v", err)
	}
	if resp.Accepted {
		t.Fatalf("missing package id accepted")
	}

	resp, err = srv.InvestigationCompleted(ctx, &eventbus.InvestigationCompletedRequest{
		PackageID:       "PKG-2",
		InvestigationID: "inv-1",
		Findings:        []string{"misrouted"},
		ConfidenceScore: 0.7,
	})
	if err != nil {
		t.Fatalf("InvestigationCompleted: %v", err)
	}
	if !resp.Accepted {
		t.Fatalf("response = %+v", resp)
	}
}

func TestStatusReportsHubState(t *testing.T) {
	srv, h := newTestServer(t)
	connID := h.Connect(&nopTransport{}, "user-1", "test")
	if err := h.Subscribe(connID, events.TopicAnomalies); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	resp, err := srv.Status(context.Background(), nil)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if resp.ActiveConnections != 1 {
		t.Fatalf("ActiveConnections = %d", resp.ActiveConnections)
	}
	if resp.Subscriptions[events.TopicAnomalies] != 1 {
		t.Fatalf("Subscriptions = %v", resp.Subscriptions)
	}
}
