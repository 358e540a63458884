package broadcast

import (
	"fmt"
	"time"

	"clearpath/internal/events"
)

const defaultInvestigatorAgent = "investigator_agent"

// InvestigationReport carries the outcome of an AI investigation into the
// hub. Completed reports produce two wire messages for one logical event:
// an agent_activity broadcast and a recovery_suggestion carrying the
// findings.
type InvestigationReport struct {
	PackageID       string
	InvestigationID string
	Findings        []string
	Recommendations []string
	ConfidenceScore float64
	AgentID         string
}

func (d *Dispatcher) InvestigationStarted(packageID, investigationType, agentID string) error {
	if packageID == "" {
		return fmt.Errorf("investigation started: package_id is required")
	}
	if investigationType == "" {
		return fmt.Errorf("investigation started: investigation_type is required")
	}
	if agentID == "" {
		agentID = defaultInvestigatorAgent
	}
	return d.AgentActivity(events.AgentActivityData{
		AgentID:   agentID,
		Action:    "investigation_started",
		PackageID: packageID,
		Status:    "active",
		PerformanceMetrics: map[string]any{
			"investigation_type": investigationType,
			"started_at":         time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

func (d *Dispatcher) InvestigationCompleted(report InvestigationReport) error {
	if report.PackageID == "" {
		return fmt.Errorf("investigation completed: package_id is required")
	}
	if report.InvestigationID == "" {
		return fmt.Errorf("investigation completed: investigation_id is required")
	}
	if report.ConfidenceScore < 0 || report.ConfidenceScore > 1 {
		return fmt.Errorf("investigation completed: confidence_score must be within [0, 1]")
	}
	if report.AgentID == "" {
		report.AgentID = defaultInvestigatorAgent
	}

	if err := d.AgentActivity(events.AgentActivityData{
		AgentID:   report.AgentID,
		Action:    "investigation_completed",
		PackageID: report.PackageID,
		Status:    "completed",
		PerformanceMetrics: map[string]any{
			"investigation_id":      report.InvestigationID,
			"findings_count":        len(report.Findings),
			"recommendations_count": len(report.Recommendations),
			"confidence_score":      report.ConfidenceScore,
			"completed_at":          time.Now().UTC().Format(time.RFC3339Nano),
		},
	}); err != nil {
		return err
	}

	return d.RecoverySuggestion(events.RecoverySuggestionData{
		PackageID: report.PackageID,
		Issue:     "AI Investigation Complete",
		AISuggestion: map[string]any{
			"investigation_id": report.InvestigationID,
			"findings":         report.Findings,
			"recommendations":  report.Recommendations,
			"confidence":       report.ConfidenceScore,
			"agent_id":         report.AgentID,
		},
		Confidence: report.ConfidenceScore,
	})
}
