package trip

import (
	"sync"
	"time"

	"github.com/zora-digital/tripweaver/config"
)

// UsageSnapshot is the read-only view of a client's consumption.
type UsageSnapshot struct {
	ClientID        string  `json:"client_id"`
	TripsThisHour   int     `json:"trips_this_hour"`
	TripsToday      int     `json:"trips_today"`
	MaxTripsPerHour int     `json:"max_trips_per_hour"`
	MaxTripsPerDay  int     `json:"max_trips_per_day"`
	DailyCost       float64 `json:"daily_cost"`
	CostCap         float64 `json:"cost_cap"`
	RemainingBudget float64 `json:"remaining_budget"`
	CanCreateTrip   bool    `json:"can_create_trip"`
	CostResetsAt    string  `json:"cost_resets_at"`
}

type usageRecord struct {
	tripTimes []time.Time
	costDay   time.Time // midnight of the day dailyCost accumulates for
	dailyCost float64
}

// Ledger tracks per-client trip counts and spend. Trip counts use rolling
// one-hour and 24-hour windows; the cost accumulator resets at local midnight.
// CheckAndRecord is atomic so concurrent creates cannot exceed a limit.
type Ledger struct {
	mu      sync.Mutex
	clients map[string]*usageRecord
	limits  config.LimitsConfig
	now     func() time.Time
}

// NewLedger builds a Ledger with the given limits.
func NewLedger(limits config.LimitsConfig) *Ledger {
	return &Ledger{
		clients: make(map[string]*usageRecord),
		limits:  limits,
		now:     time.Now,
	}
}

// CheckAndRecord verifies every limit for clientID and, when all pass, records
// one trip and the estimated cost in a single critical section. A limit
// violation returns a *Error with Kind limit and records nothing.
func (l *Ledger) CheckAndRecord(clientID string, estCost float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := l.client(clientID, now)

	hour, day := rec.counts(now)
	if hour >= l.limits.MaxTripsPerHour {
		return NewError(KindLimit, "hourly trip limit reached (%d per hour)", l.limits.MaxTripsPerHour)
	}
	if day >= l.limits.MaxTripsPerDay {
		return NewError(KindLimit, "daily trip limit reached (%d per day)", l.limits.MaxTripsPerDay)
	}
	if rec.dailyCost+estCost > l.limits.DailyCostCapUSD {
		return NewError(KindLimit, "daily cost cap reached ($%.2f)", l.limits.DailyCostCapUSD)
	}

	rec.tripTimes = append(rec.tripTimes, now)
	rec.dailyCost += estCost
	return nil
}

// RecordCost adds actual spend beyond the create-time estimate, such as the
// measured pipeline cost on completion. Overruns past the cap are recorded as
// is; the cap only gates new trips.
func (l *Ledger) RecordCost(clientID string, cost float64) {
	if cost <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.client(clientID, l.now())
	rec.dailyCost += cost
}

// Snapshot returns the current usage view for clientID. Unknown clients get a
// zeroed snapshot with CanCreateTrip true.
func (l *Ledger) Snapshot(clientID string) UsageSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := l.client(clientID, now)
	hour, day := rec.counts(now)

	remaining := l.limits.DailyCostCapUSD - rec.dailyCost
	if remaining < 0 {
		remaining = 0
	}
	return UsageSnapshot{
		ClientID:        clientID,
		TripsThisHour:   hour,
		TripsToday:      day,
		MaxTripsPerHour: l.limits.MaxTripsPerHour,
		MaxTripsPerDay:  l.limits.MaxTripsPerDay,
		DailyCost:       rec.dailyCost,
		CostCap:         l.limits.DailyCostCapUSD,
		RemainingBudget: remaining,
		CanCreateTrip: hour < l.limits.MaxTripsPerHour &&
			day < l.limits.MaxTripsPerDay &&
			rec.dailyCost+l.limits.EstimatedCostPerTrip <= l.limits.DailyCostCapUSD,
		CostResetsAt: midnightAfter(now).Format(time.RFC3339),
	}
}

// client returns the record for clientID, rolling the cost day forward and
// pruning trip timestamps older than 24 hours. Callers hold l.mu.
func (l *Ledger) client(clientID string, now time.Time) *usageRecord {
	rec, ok := l.clients[clientID]
	if !ok {
		rec = &usageRecord{costDay: midnightOf(now)}
		l.clients[clientID] = rec
	}
	if day := midnightOf(now); !rec.costDay.Equal(day) {
		rec.costDay = day
		rec.dailyCost = 0
	}
	cutoff := now.Add(-24 * time.Hour)
	kept := rec.tripTimes[:0]
	for _, ts := range rec.tripTimes {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rec.tripTimes = kept
	return rec
}

func (r *usageRecord) counts(now time.Time) (hour, day int) {
	hourCutoff := now.Add(-time.Hour)
	for _, ts := range r.tripTimes {
		day++
		if ts.After(hourCutoff) {
			hour++
		}
	}
	return hour, day
}

func midnightOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func midnightAfter(t time.Time) time.Time {
	return midnightOf(t).Add(24 * time.Hour)
}
