// Package ingest implements the EventBus gRPC service: the thin bridge
// between publishing collaborators and the dispatcher. Validation failures
// are reported in the response body so a degraded caller gets a clean
// contract violation instead of a transport error.
package ingest

import (
	"context"

	"clearpath/internal/broadcast"
	"clearpath/internal/events"
	"clearpath/internal/hub"
	"clearpath/internal/rpc/eventbus"
)

type Server struct {
	hub        *hub.Hub
	dispatcher *broadcast.Dispatcher
}

func NewServer(h *hub.Hub, d *broadcast.Dispatcher) *Server {
	return &Server{hub: h, dispatcher: d}
}

func accepted(err error) (*eventbus.PublishResponse, error) {
	if err != nil {
		return &eventbus.PublishResponse{Accepted: false, Error: err.Error()}, nil
	}
	return &eventbus.PublishResponse{Accepted: true}, nil
}

func (s *Server) PublishPackageUpdate(_ context.Context, in *events.PackageUpdateData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.PackageUpdate(*in))
}

func (s *Server) PublishAnomaly(_ context.Context, in *events.AnomalyData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.AnomalyDetected(*in))
}

func (s *Server) PublishRecoverySuggestion(_ context.Context, in *events.RecoverySuggestionData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.RecoverySuggestion(*in))
}

func (s *Server) PublishDashboardMetrics(_ context.Context, in *events.DashboardMetricsData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.DashboardMetrics(*in))
}

func (s *Server) PublishAgentActivity(_ context.Context, in *events.AgentActivityData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.AgentActivity(*in))
}

func (s *Server) PublishNotification(_ context.Context, in *events.NotificationData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.Notification(*in))
}

func (s *Server) PublishMapUpdate(_ context.Context, in *events.MapUpdateData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.MapUpdate(*in))
}

func (s *Server) PublishSystemHealth(_ context.Context, in *events.SystemHealthData) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.SystemHealth(*in))
}

func (s *Server) InvestigationStarted(_ context.Context, in *eventbus.InvestigationStartedRequest) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.InvestigationStarted(in.PackageID, in.InvestigationType, in.AgentID))
}

func (s *Server) InvestigationCompleted(_ context.Context, in *eventbus.InvestigationCompletedRequest) (*eventbus.PublishResponse, error) {
	return accepted(s.dispatcher.InvestigationCompleted(broadcast.InvestigationReport{
		PackageID:       in.PackageID,
		InvestigationID: in.InvestigationID,
		Findings:        in.Findings,
		Recommendations: in.Recommendations,
		ConfidenceScore: in.ConfidenceScore,
		AgentID:         in.AgentID,
	}))
}

func (s *Server) Status(_ context.Context, _ *eventbus.StatusRequest) (*eventbus.StatusResponse, error) {
	return &eventbus.StatusResponse{
		ActiveConnections: s.hub.ConnectionCount(),
		Subscriptions:     s.hub.SubscriberCounts(),
	}, nil
}
