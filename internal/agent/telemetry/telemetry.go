// Package telemetry provides monitoring and cost tracking for pipeline runs.
package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/zora-digital/tripweaver/config"
)

// Telemetry aggregates run metrics and LLM spend across the process.
type Telemetry struct {
	config      config.TelemetryConfig
	logger      *log.Logger
	mu          sync.RWMutex
	metrics     Metrics
	costTracker costTracker
}

// Metrics holds pipeline performance counters.
type Metrics struct {
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	AverageRunTime time.Duration

	StageExecutions   map[string]int64
	StageAverageTimes map[string]time.Duration
}

type costTracker struct {
	TotalCost   float64
	TotalTokens int64
	ModelCosts  map[string]float64
	StageCosts  map[string]float64
}

// RunEvent describes one finished pipeline run.
type RunEvent struct {
	JobID      string
	Duration   time.Duration
	Success    bool
	Error      string
	Cost       float64
	TokensUsed int64
}

// StageEvent describes one finished pipeline stage.
type StageEvent struct {
	JobID      string
	Stage      string
	Duration   time.Duration
	Success    bool
	Cost       float64
	TokensUsed int64
	Model      string
}

// CostSummary is a point-in-time copy of accumulated spend.
type CostSummary struct {
	TotalCost   float64
	TotalTokens int64
	ModelCosts  map[string]float64
	StageCosts  map[string]float64
}

// New creates a Telemetry instance. With PeriodicLogs enabled a background
// reporter logs a snapshot every ten minutes.
func New(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: Metrics{
			StageExecutions:   make(map[string]int64),
			StageAverageTimes: make(map[string]time.Duration),
		},
		costTracker: costTracker{
			ModelCosts: make(map[string]float64),
			StageCosts: make(map[string]float64),
		},
	}
	if cfg.Enabled && cfg.PeriodicLogs {
		go t.startCostReporting()
	}
	return t
}

// RecordRunEvent records a finished run.
func (t *Telemetry) RecordRunEvent(event RunEvent) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalRuns++
	if event.Success {
		t.metrics.SuccessfulRuns++
	} else {
		t.metrics.FailedRuns++
	}
	if t.metrics.TotalRuns == 1 {
		t.metrics.AverageRunTime = event.Duration
	} else {
		total := t.metrics.AverageRunTime * time.Duration(t.metrics.TotalRuns-1)
		t.metrics.AverageRunTime = (total + event.Duration) / time.Duration(t.metrics.TotalRuns)
	}
	if t.config.CostTracking {
		t.costTracker.TotalCost += event.Cost
		t.costTracker.TotalTokens += event.TokensUsed
	}

	t.logger.Printf("Run Event: Job=%s, Success=%t, Duration=%v, Cost=$%.4f, Tokens=%d",
		event.JobID, event.Success, event.Duration, event.Cost, event.TokensUsed)
}

// RecordStageEvent records a finished stage.
func (t *Telemetry) RecordStageEvent(event StageEvent) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.StageExecutions[event.Stage]++
	executions := t.metrics.StageExecutions[event.Stage]
	if executions == 1 {
		t.metrics.StageAverageTimes[event.Stage] = event.Duration
	} else {
		total := t.metrics.StageAverageTimes[event.Stage] * time.Duration(executions-1)
		t.metrics.StageAverageTimes[event.Stage] = (total + event.Duration) / time.Duration(executions)
	}
	if t.config.CostTracking {
		t.costTracker.StageCosts[event.Stage] += event.Cost
		t.costTracker.ModelCosts[event.Model] += event.Cost
	}

	t.logger.Printf("Stage Event: Job=%s, Stage=%s, Success=%t, Duration=%v, Cost=$%.4f",
		event.JobID, event.Stage, event.Success, event.Duration, event.Cost)
}

// GetMetrics returns a copy of the current metrics.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	metrics := t.metrics
	metrics.StageExecutions = make(map[string]int64, len(t.metrics.StageExecutions))
	metrics.StageAverageTimes = make(map[string]time.Duration, len(t.metrics.StageAverageTimes))
	for k, v := range t.metrics.StageExecutions {
		metrics.StageExecutions[k] = v
	}
	for k, v := range t.metrics.StageAverageTimes {
		metrics.StageAverageTimes[k] = v
	}
	return metrics
}

// GetCostSummary returns a copy of accumulated spend.
func (t *Telemetry) GetCostSummary() CostSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := CostSummary{
		TotalCost:   t.costTracker.TotalCost,
		TotalTokens: t.costTracker.TotalTokens,
		ModelCosts:  make(map[string]float64, len(t.costTracker.ModelCosts)),
		StageCosts:  make(map[string]float64, len(t.costTracker.StageCosts)),
	}
	for k, v := range t.costTracker.ModelCosts {
		summary.ModelCosts[k] = v
	}
	for k, v := range t.costTracker.StageCosts {
		summary.StageCosts[k] = v
	}
	return summary
}

// Shutdown logs a final report.
func (t *Telemetry) Shutdown() {
	metrics := t.GetMetrics()
	costs := t.GetCostSummary()
	if metrics.TotalRuns == 0 {
		return
	}
	t.logger.Printf("Final Report: Runs=%d, Success=%d, AvgTime=%v, TotalCost=$%.4f, Tokens=%d",
		metrics.TotalRuns, metrics.SuccessfulRuns, metrics.AverageRunTime,
		costs.TotalCost, costs.TotalTokens)
}

func (t *Telemetry) startCostReporting() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		costs := t.GetCostSummary()
		t.logger.Printf("Cost Report: Total=$%.4f, Tokens=%d", costs.TotalCost, costs.TotalTokens)
		for model, cost := range costs.ModelCosts {
			t.logger.Printf("  Model %s: $%.4f", model, cost)
		}
		for stage, cost := range costs.StageCosts {
			t.logger.Printf("  Stage %s: $%.4f", stage, cost)
		}
	}
}
