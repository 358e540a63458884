// Package eventbus defines the gRPC publish surface collaborating services
// (package tracking, AI investigation, health monitors) use to push events
// into the hub. The service descriptor is written by hand and rides the JSON
// codec, so there is no generated code.
package eventbus

import (
	"context"

	"clearpath/internal/events"

	"google.golang.org/grpc"
)

const (
	ServiceName = "clearpath.hub.EventBus"

	MethodPublishPackageUpdate      = "/" + ServiceName + "/PublishPackageUpdate"
	MethodPublishAnomaly            = "/" + ServiceName + "/PublishAnomaly"
	MethodPublishRecoverySuggestion = "/" + ServiceName + "/PublishRecoverySuggestion"
	MethodPublishDashboardMetrics   = "/" + ServiceName + "/PublishDashboardMetrics"
	MethodPublishAgentActivity      = "/" + ServiceName + "/PublishAgentActivity"
	MethodPublishNotification       = "/" + ServiceName + "/PublishNotification"
	MethodPublishMapUpdate          = "/" + ServiceName + "/PublishMapUpdate"
	MethodPublishSystemHealth       = "/" + ServiceName + "/PublishSystemHealth"
	MethodInvestigationStarted      = "/" + ServiceName + "/InvestigationStarted"
	MethodInvestigationCompleted    = "/" + ServiceName + "/InvestigationCompleted"
	MethodStatus                    = "/" + ServiceName + "/Status"
)

// PublishResponse reports whether the hub accepted the publish. Validation
// failures come back as application payloads, not transport errors.
type PublishResponse struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

type InvestigationStartedRequest struct {
	PackageID         string `json:"package_id"`
	InvestigationType string `json:"investigation_type"`
	AgentID           string `json:"agent_id,omitempty"`
}

type InvestigationCompletedRequest struct {
	PackageID       string   `json:"package_id"`
	InvestigationID string   `json:"investigation_id"`
	Findings        []string `json:"findings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	AgentID         string   `json:"agent_id,omitempty"`
}

type StatusRequest struct{}

type StatusResponse struct {
	ActiveConnections int            `json:"active_connections"`
	Subscriptions     map[string]int `json:"subscriptions"`
}

type EventBusServer interface {
	PublishPackageUpdate(context.Context, *events.PackageUpdateData) (*PublishResponse, error)
	PublishAnomaly(context.Context, *events.AnomalyData) (*PublishResponse, error)
	PublishRecoverySuggestion(context.Context, *events.RecoverySuggestionData) (*PublishResponse, error)
	PublishDashboardMetrics(context.Context, *events.DashboardMetricsData) (*PublishResponse, error)
	PublishAgentActivity(context.Context, *events.AgentActivityData) (*PublishResponse, error)
	PublishNotification(context.Context, *events.NotificationData) (*PublishResponse, error)
	PublishMapUpdate(context.Context, *events.MapUpdateData) (*PublishResponse, error)
	PublishSystemHealth(context.Context, *events.SystemHealthData) (*PublishResponse, error)
	InvestigationStarted(context.Context, *InvestigationStartedRequest) (*PublishResponse, error)
	InvestigationCompleted(context.Context, *InvestigationCompletedRequest) (*PublishResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
}

func RegisterEventBusServer(registrar grpc.ServiceRegistrar, srv EventBusServer) {
	registrar.RegisterService(&EventBusServiceDesc, srv)
}

var EventBusServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EventBusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PublishPackageUpdate", Handler: _EventBus_PublishPackageUpdate_Handler},
		{MethodName: "PublishAnomaly", Handler: _EventBus_PublishAnomaly_Handler},
		{MethodName: "PublishRecoverySuggestion", Handler: _EventBus_PublishRecoverySuggestion_Handler},
		{MethodName: "PublishDashboardMetrics", Handler: _EventBus_PublishDashboardMetrics_Handler},
		{MethodName: "PublishAgentActivity", Handler: _EventBus_PublishAgentActivity_Handler},
		{MethodName: "PublishNotification", Handler: _EventBus_PublishNotification_Handler},
		{MethodName: "PublishMapUpdate", Handler: _EventBus_PublishMapUpdate_Handler},
		{MethodName: "PublishSystemHealth", Handler: _EventBus_PublishSystemHealth_Handler},
		{MethodName: "InvestigationStarted", Handler: _EventBus_InvestigationStarted_Handler},
		{MethodName: "InvestigationCompleted", Handler: _EventBus_InvestigationCompleted_Handler},
		{MethodName: "Status", Handler: _EventBus_Status_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/eventbus.proto",
}

func unaryHandler[Req any, Res any](
	method string,
	call func(EventBusServer, context.Context, *Req) (*Res, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EventBusServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EventBusServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _EventBus_PublishPackageUpdate_Handler = unaryHandler(MethodPublishPackageUpdate,
	func(s EventBusServer, ctx context.Context, in *events.PackageUpdateData) (*PublishResponse, error) {
		return s.PublishPackageUpdate(ctx, in)
	})

var _EventBus_PublishAnomaly_Handler = unaryHandler(MethodPublishAnomaly,
	func(s EventBusServer, ctx context.Context, in *events.AnomalyData) (*PublishResponse, error) {
		return s.PublishAnomaly(ctx, in)
	})

var _EventBus_PublishRecoverySuggestion_Handler = unaryHandler(MethodPublishRecoverySuggestion,
	func(s EventBusServer, ctx context.Context, in *events.RecoverySuggestionData) (*PublishResponse, error) {
		return s.PublishRecoverySuggestion(ctx, in)
	})

var _EventBus_PublishDashboardMetrics_Handler = unaryHandler(MethodPublishDashboardMetrics,
	func(s EventBusServer, ctx context.Context, in *events.DashboardMetricsData) (*PublishResponse, error) {
		return s.PublishDashboardMetrics(ctx, in)
	})

var _EventBus_PublishAgentActivity_Handler = unaryHandler(MethodPublishAgentActivity,
	func(s EventBusServer, ctx context.Context, in *events.AgentActivityData) (*PublishResponse, error) {
		return s.PublishAgentActivity(ctx, in)
	})

var _EventBus_PublishNotification_Handler = unaryHandler(MethodPublishNotification,
	func(s EventBusServer, ctx context.Context, in *events.NotificationData) (*PublishResponse, error) {
		return s.PublishNotification(ctx, in)
	})

var _EventBus_PublishMapUpdate_Handler = unaryHandler(MethodPublishMapUpdate,
	func(s EventBusServer, ctx context.Context, in *events.MapUpdateData) (*PublishResponse, error) {
		return s.PublishMapUpdate(ctx, in)
	})

var _EventBus_PublishSystemHealth_Handler = unaryHandler(MethodPublishSystemHealth,
	func(s EventBusServer, ctx context.Context, in *events.SystemHealthData) (*PublishResponse, error) {
		return s.PublishSystemHealth(ctx, in)
	})

var _EventBus_InvestigationStarted_Handler = unaryHandler(MethodInvestigationStarted,
	func(s EventBusServer, ctx context.Context, in *InvestigationStartedRequest) (*PublishResponse, error) {
		return s.InvestigationStarted(ctx, in)
	})

var _EventBus_InvestigationCompleted_Handler = unaryHandler(MethodInvestigationCompleted,
	func(s EventBusServer, ctx context.Context, in *InvestigationCompletedRequest) (*PublishResponse, error) {
		return s.InvestigationCompleted(ctx, in)
	})

var _EventBus_Status_Handler = unaryHandler(MethodStatus,
	func(s EventBusServer, ctx context.Context, in *StatusRequest) (*StatusResponse, error) {
		return s.Status(ctx, in)
	})

type EventBusClient interface {
	PublishPackageUpdate(ctx context.Context, in *events.PackageUpdateData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishAnomaly(ctx context.Context, in *events.AnomalyData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishRecoverySuggestion(ctx context.Context, in *events.RecoverySuggestionData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishDashboardMetrics(ctx context.Context, in *events.DashboardMetricsData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishAgentActivity(ctx context.Context, in *events.AgentActivityData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishNotification(ctx context.Context, in *events.NotificationData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishMapUpdate(ctx context.Context, in *events.MapUpdateData, opts ...grpc.CallOption) (*PublishResponse, error)
	PublishSystemHealth(ctx context.Context, in *events.SystemHealthData, opts ...grpc.CallOption) (*PublishResponse, error)
	InvestigationStarted(ctx context.Context, in *InvestigationStartedRequest, opts ...grpc.CallOption) (*PublishResponse, error)
	InvestigationCompleted(ctx context.Context, in *InvestigationCompletedRequest, opts ...grpc.CallOption) (*PublishResponse, error)
	Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error)
}

type eventBusClient struct {
	cc grpc.ClientConnInterface
}

func NewEventBusClient(cc grpc.ClientConnInterface) EventBusClient {
	return &eventBusClient{cc: cc}
}

func invoke[Res any](c *eventBusClient, ctx context.Context, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *eventBusClient) PublishPackageUpdate(ctx context.Context, in *events.PackageUpdateData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishPackageUpdate, in, opts)
}

func (c *eventBusClient) PublishAnomaly(ctx context.Context, in *events.AnomalyData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishAnomaly, in, opts)
}

func (c *eventBusClient) PublishRecoverySuggestion(ctx context.Context, in *events.RecoverySuggestionData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishRecoverySuggestion, in, opts)
}

func (c *eventBusClient) PublishDashboardMetrics(ctx context.Context, in *events.DashboardMetricsData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishDashboardMetrics, in, opts)
}

func (c *eventBusClient) PublishAgentActivity(ctx context.Context, in *events.AgentActivityData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishAgentActivity, in, opts)
}

func (c *eventBusClient) PublishNotification(ctx context.Context, in *events.NotificationData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishNotification, in, opts)
}

func (c *eventBusClient) PublishMapUpdate(ctx context.Context, in *events.MapUpdateData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishMapUpdate, in, opts)
}

func (c *eventBusClient) PublishSystemHealth(ctx context.Context, in *events.SystemHealthData, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodPublishSystemHealth, in, opts)
}

func (c *eventBusClient) InvestigationStarted(ctx context.Context, in *InvestigationStartedRequest, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodInvestigationStarted, in, opts)
}

func (c *eventBusClient) InvestigationCompleted(ctx context.Context, in *InvestigationCompletedRequest, opts ...grpc.CallOption) (*PublishResponse, error) {
	return invoke[PublishResponse](c, ctx, MethodInvestigationCompleted, in, opts)
}

func (c *eventBusClient) Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](c, ctx, MethodStatus, in, opts)
}
