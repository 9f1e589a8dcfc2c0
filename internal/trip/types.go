package trip

import "time"

// Status is the lifecycle state of a planning job. Transitions are strictly
// forward: queued -> running -> completed|error. Terminal states never change.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Steps names the pipeline stages in execution order.
var Steps = []string{"research", "review", "plan"}

// BudgetLevels and TravelStyles are the only accepted request values.
var (
	BudgetLevels = []string{"Budget", "Moderate", "Luxury"}
	TravelStyles = []string{"Adventure", "Cultural", "Relaxation", "Food & Dining", "Shopping", "Nightlife"}
)

// PlanRequest is a validated trip-planning request.
type PlanRequest struct {
	Destination         string   `json:"destination"`
	DurationDays        int      `json:"duration_days"`
	BudgetLevel         string   `json:"budget_level"`
	TravelStyle         []string `json:"travel_style"`
	SpecialRequirements string   `json:"special_requirements,omitempty"`
	ClientID            string   `json:"client_id"`
}

// Job is a snapshot of a planning job's progress state. All fields are value
// types so a copy handed to subscribers is safe to read without locking.
type Job struct {
	ID              string     `json:"trip_id"`
	ClientID        string     `json:"client_id"`
	Status          Status     `json:"status"`
	CurrentStep     int        `json:"current_step"`
	TotalSteps      int        `json:"total_steps"`
	ProgressPercent int        `json:"progress_percent"`
	Message         string     `json:"message"`
	ETASeconds      int        `json:"eta_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorDetail     string     `json:"error,omitempty"`
	Warnings        []string   `json:"warnings,omitempty"`
	HasResult       bool       `json:"has_result"`
}
