package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypePackageUpdate      = "package_update"
	TypeAnomalyDetected    = "anomaly_detected"
	TypeRecoverySuggestion = "recovery_suggestion"
	TypeDashboardMetrics   = "dashboard_metrics"
	TypeAgentActivity      = "agent_activity"
	TypeNotification       = "notification"
	TypeMapUpdate          = "map_update"
	TypeSystemHealth       = "system_health"
	TypePing               = "ping"
	TypePong               = "pong"
	TypeError              = "error"
	TypeSuccess            = "success"
)

const (
	TypeSubscribe         = "subscribe"
	TypeUnsubscribe       = "unsubscribe"
	TypeGetConnectionInfo = "get_connection_info"
)

const (
	TopicPackageUpdates      = "package_updates"
	TopicAnomalies           = "anomalies"
	TopicRecoverySuggestions = "recovery_suggestions"
	TopicDashboardMetrics    = "dashboard_metrics"
	TopicAgentActivity       = "agent_activity"
	TopicNotifications       = "notifications"
	TopicMapUpdates          = "map_updates"
	TopicSystemHealth        = "system_health"
)

// Envelope is the wire message in both directions: a kind tag, a typed
// payload, and a timestamp. Data is one of the payload structs below for
// outbound traffic; inbound traffic is decoded separately by the hub.
type Envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	MessageID string    `json:"message_id,omitempty"`
}

func NewEnvelope(typ string, data any) Envelope {
	return Envelope{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now().UTC(),
		MessageID: uuid.NewString(),
	}
}

type PackageUpdateData struct {
	PackageID         string     `json:"package_id"`
	TrackingNumber    string     `json:"tracking_number"`
	Status            string     `json:"status"`
	Location          string     `json:"location,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	LastScanTime      *time.Time `json:"last_scan_time,omitempty"`
	Carrier           string     `json:"carrier,omitempty"`
}

type AnomalyData struct {
	PackageID         string    `json:"package_id"`
	AnomalyType       string    `json:"anomaly_type"`
	Severity          string    `json:"severity"`
	Description       string    `json:"description"`
	RecommendedAction string    `json:"recommended_action,omitempty"`
	ConfidenceScore   *float64  `json:"confidence_score,omitempty"`
	DetectedAt        time.Time `json:"detected_at"`
}

type RecoverySuggestionData struct {
	PackageID    string           `json:"package_id"`
	Issue        string           `json:"issue"`
	AISuggestion map[string]any   `json:"ai_suggestion"`
	Confidence   float64          `json:"confidence"`
	Alternatives []map[string]any `json:"alternatives,omitempty"`
}

type DashboardMetricsData struct {
	TotalPackages   int      `json:"total_packages"`
	InTransit       int      `json:"in_transit"`
	Delivered       int      `json:"delivered"`
	Delayed         int      `json:"delayed"`
	Anomalies       int      `json:"anomalies"`
	RecoveryRate    float64  `json:"recovery_rate"`
	AvgDeliveryTime *float64 `json:"avg_delivery_time,omitempty"`
}

type AgentActivityData struct {
	AgentID            string         `json:"agent_id"`
	Action             string         `json:"action"`
	PackageID          string         `json:"package_id,omitempty"`
	Location           string         `json:"location,omitempty"`
	Status             string         `json:"status"`
	PerformanceMetrics map[string]any `json:"performance_metrics,omitempty"`
}

type NotificationData struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	Category string `json:"category"`
	Read     bool   `json:"read"`
	UserID   string `json:"user_id,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MapUpdateData struct {
	PackageID   string        `json:"package_id"`
	Coordinates Coordinates   `json:"coordinates"`
	Status      string        `json:"status"`
	Route       []Coordinates `json:"route,omitempty"`
	Speed       *float64      `json:"speed,omitempty"`
	Heading     *float64      `json:"heading,omitempty"`
}

type SystemHealthData struct {
	Component   string         `json:"component"`
	Status      string         `json:"status"`
	Performance map[string]any `json:"performance"`
	LastCheck   time.Time      `json:"last_check"`
}

type PongData struct {
	Timestamp string `json:"timestamp"`
}

type ErrorData struct {
	ErrorCode    string         `json:"error_code"`
	ErrorMessage string         `json:"error_message"`
	Details      map[string]any `json:"details,omitempty"`
}

// ConnectionInfoData answers a get_connection_info control message and backs
// the admin /ws/connections listing.
type ConnectionInfoData struct {
	ConnectionID  string    `json:"connection_id"`
	UserID        string    `json:"user_id,omitempty"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastActivity  time.Time `json:"last_activity"`
	Subscriptions []string  `json:"subscriptions"`
}
