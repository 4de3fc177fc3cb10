package models

import "time"

// ActionStatus tracks the lifecycle of a single pipeline stage execution.
type ActionStatus string

const (
	StatusIdle      ActionStatus = "idle"
	StatusWorking   ActionStatus = "working"
	StatusCompleted ActionStatus = "completed"
	StatusError     ActionStatus = "error"
)

// Action is the per-run execution record of one pipeline stage. It is
// created in working state when the stage begins and transitions to
// completed or error. Actions are never reused across runs.
type Action struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Status    ActionStatus      `json:"status"`
	Output    string            `json:"output,omitempty"`
	Score     *int              `json:"score,omitempty"`
	Metrics   *SentimentMetrics `json:"sentiment_metrics,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitzero"`
}
