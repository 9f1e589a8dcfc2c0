package trip

import (
	"testing"
	"time"

	"github.com/zora-digital/tripweaver/config"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		MaxTripsPerHour:      2,
		MaxTripsPerDay:       3,
		DailyCostCapUSD:      1.0,
		EstimatedCostPerTrip: 0.03,
	}
}

func newTestLedger(start time.Time) (*Ledger, *time.Time) {
	clock := start
	l := NewLedger(testLimits())
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestLedgerHourlyLimit(t *testing.T) {
	l, clock := newTestLedger(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))

	if err := l.CheckAndRecord("c1", 0.03); err != nil {
		t.Fatalf("first trip: %v", err)
	}
	if err := l.CheckAndRecord("c1", 0.03); err != nil {
		t.Fatalf("second trip: %v", err)
	}
	err := l.CheckAndRecord("c1", 0.03)
	if err == nil || KindOf(err) != KindLimit {
		t.Fatalf("expected limit error, got %v", err)
	}

	// The hourly window rolls; an hour later one more fits under the day cap.
	*clock = clock.Add(61 * time.Minute)
	if err := l.CheckAndRecord("c1", 0.03); err != nil {
		t.Fatalf("after window rolled: %v", err)
	}
	err = l.CheckAndRecord("c1", 0.03)
	if err == nil || KindOf(err) != KindLimit {
		t.Fatalf("expected daily limit error, got %v", err)
	}
}

func TestLedgerCostCap(t *testing.T) {
	l, _ := newTestLedger(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))

	if err := l.CheckAndRecord("c1", 0.99); err != nil {
		t.Fatalf("within cap: %v", err)
	}
	err := l.CheckAndRecord("c1", 0.02)
	if err == nil || KindOf(err) != KindLimit {
		t.Fatalf("expected cost cap error, got %v", err)
	}
}

func TestLedgerCostResetsAtMidnight(t *testing.T) {
	l, clock := newTestLedger(time.Date(2026, 8, 28, 23, 30, 0, 0, time.UTC))

	if err := l.CheckAndRecord("c1", 0.99); err != nil {
		t.Fatalf("within cap: %v", err)
	}
	*clock = time.Date(2026, 8, 29, 0, 5, 0, 0, time.UTC)
	snap := l.Snapshot("c1")
	if snap.DailyCost != 0 {
		t.Fatalf("cost not reset at midnight: %v", snap.DailyCost)
	}
	// Trip counts use a rolling 24h window and are not reset by the day change.
	if snap.TripsToday != 1 {
		t.Fatalf("expected rolling 24h count 1, got %d", snap.TripsToday)
	}
}

func TestLedgerSnapshotUnknownClient(t *testing.T) {
	l, _ := newTestLedger(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	snap := l.Snapshot("nobody")
	if !snap.CanCreateTrip || snap.TripsThisHour != 0 || snap.DailyCost != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestLedgerClientsIsolated(t *testing.T) {
	l, _ := newTestLedger(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	for i := 0; i < 2; i++ {
		if err := l.CheckAndRecord("c1", 0.03); err != nil {
			t.Fatalf("c1 trip %d: %v", i, err)
		}
	}
	if err := l.CheckAndRecord("c2", 0.03); err != nil {
		t.Fatalf("c2 should be unaffected: %v", err)
	}
}
