package events

import "fmt"

var allowedOutboundTypes = map[string]struct{}{
	TypePackageUpdate:      {},
	TypeAnomalyDetected:    {},
	TypeRecoverySuggestion: {},
	TypeDashboardMetrics:   {},
	TypeAgentActivity:      {},
	TypeNotification:       {},
	TypeMapUpdate:          {},
	TypeSystemHealth:       {},
	TypePing:               {},
	TypePong:               {},
	TypeError:              {},
	TypeSuccess:            {},
}

var allowedControlTypes = map[string]struct{}{
	TypeSubscribe:         {},
	TypeUnsubscribe:       {},
	TypePing:              {},
	TypeGetConnectionInfo: {},
}

func AllowedOutboundTypes() []string {
	return []string{
		TypePackageUpdate,
		TypeAnomalyDetected,
		TypeRecoverySuggestion,
		TypeDashboardMetrics,
		TypeAgentActivity,
		TypeNotification,
		TypeMapUpdate,
		TypeSystemHealth,
		TypePing,
		TypePong,
		TypeError,
		TypeSuccess,
	}
}

func AllowedControlTypes() []string {
	return []string{
		TypeSubscribe,
		TypeUnsubscribe,
		TypePing,
		TypeGetConnectionInfo,
	}
}

func IsOutboundType(typ string) bool {
	_, ok := allowedOutboundTypes[typ]
	return ok
}

func IsControlType(typ string) bool {
	_, ok := allowedControlTypes[typ]
	return ok
}

// TopicForType returns the fixed broadcast topic for an event kind. Control
// and reply kinds have no topic.
func TopicForType(typ string) (string, bool) {
	switch typ {
	case TypePackageUpdate:
		return TopicPackageUpdates, true
	case TypeAnomalyDetected:
		return TopicAnomalies, true
	case TypeRecoverySuggestion:
		return TopicRecoverySuggestions, true
	case TypeDashboardMetrics:
		return TopicDashboardMetrics, true
	case TypeAgentActivity:
		return TopicAgentActivity, true
	case TypeNotification:
		return TopicNotifications, true
	case TypeMapUpdate:
		return TopicMapUpdates, true
	case TypeSystemHealth:
		return TopicSystemHealth, true
	default:
		return "", false
	}
}

func (d PackageUpdateData) Validate() error {
	if d.PackageID == "" {
		return fmt.Errorf("package_id is required")
	}
	if d.TrackingNumber == "" {
		return fmt.Errorf("tracking_number is required")
	}
	if d.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

func (d AnomalyData) Validate() error {
	if d.PackageID == "" {
		return fmt.Errorf("package_id is required")
	}
	if d.AnomalyType == "" {
		return fmt.Errorf("anomaly_type is required")
	}
	if d.Severity == "" {
		return fmt.Errorf("severity is required")
	}
	if d.Description == "" {
		return fmt.Errorf("description is required")
	}
	if d.DetectedAt.IsZero() {
		return fmt.Errorf("detected_at is required")
	}
	if d.ConfidenceScore != nil && (*d.ConfidenceScore < 0 || *d.ConfidenceScore > 1) {
		return fmt.Errorf("confidence_score must be within [0, 1]")
	}
	return nil
}

func (d RecoverySuggestionData) Validate() error {
	if d.PackageID == "" {
		return fmt.Errorf("package_id is required")
	}
	if d.Issue == "" {
		return fmt.Errorf("issue is required")
	}
	if d.AISuggestion == nil {
		return fmt.Errorf("ai_suggestion is required")
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0, 1]")
	}
	return nil
}

func (d DashboardMetricsData) Validate() error {
	if d.TotalPackages < 0 || d.InTransit < 0 || d.Delivered < 0 || d.Delayed < 0 || d.Anomalies < 0 {
		return fmt.Errorf("package counts must be >= 0")
	}
	if d.RecoveryRate < 0 {
		return fmt.Errorf("recovery_rate must be >= 0")
	}
	return nil
}

func (d AgentActivityData) Validate() error {
	if d.AgentID == "" {
		return fmt.Errorf("agent_id is required")
	}
	if d.Action == "" {
		return fmt.Errorf("action is required")
	}
	if d.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

func (d NotificationData) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("id is required")
	}
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	if d.Message == "" {
		return fmt.Errorf("message is required")
	}
	if d.Priority == "" {
		return fmt.Errorf("priority is required")
	}
	if d.Category == "" {
		return fmt.Errorf("category is required")
	}
	return nil
}

func (d MapUpdateData) Validate() error {
	if d.PackageID == "" {
		return fmt.Errorf("package_id is required")
	}
	if d.Status == "" {
		return fmt.Errorf("status is required")
	}
	if d.Coordinates.Lat < -90 || d.Coordinates.Lat > 90 {
		return fmt.Errorf("coordinates.lat must be within [-90, 90]")
	}
	if d.Coordinates.Lng < -180 || d.Coordinates.Lng > 180 {
		return fmt.Errorf("coordinates.lng must be within [-180, 180]")
	}
	return nil
}

func (d SystemHealthData) Validate() error {
	if d.Component == "" {
		return fmt.Errorf("component is required")
	}
	if d.Status == "" {
		return fmt.Errorf("status is required")
	}
	if d.Performance == nil {
		return fmt.Errorf("performance is required")
	}
	if d.LastCheck.IsZero() {
		return fmt.Errorf("last_check is required")
	}
	return nil
}
