package server

// CreateTripRequest is the POST /api/trips payload. client_id is optional;
// a fresh id is generated when omitted.
type CreateTripRequest struct {
	Destination         string   `json:"destination"`
	DurationDays        int      `json:"duration_days"`
	BudgetLevel         string   `json:"budget_level"`
	TravelStyle         []string `json:"travel_style"`
	SpecialRequirements string   `json:"special_requirements"`
	ClientID            string   `json:"client_id"`
}

// CreateTripResponse acknowledges an accepted planning job.
type CreateTripResponse struct {
	TripID   string `json:"trip_id"`
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}

// HTTPError documents the error envelope produced by the error handler.
type HTTPError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
