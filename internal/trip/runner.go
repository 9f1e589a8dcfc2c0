package trip

import (
	"context"
	"log"
	"time"

	"github.com/zora-digital/tripweaver/internal/helpers"
)

// Pipeline produces an HTML itinerary for a validated request. It reports
// stage starts through onStep with a 1-based step index.
type Pipeline interface {
	Run(ctx context.Context, req PlanRequest, onStep func(step int, message string)) (string, error)
}

// ReportFunc inspects finished itinerary HTML and returns advisory warnings.
type ReportFunc func(html string) []string

// Runner executes the planning pipeline for a job in a background goroutine
// and drives the job's snapshot through the Registry. A job is attempted
// exactly once; there are no retries.
type Runner struct {
	registry  *Registry
	artifacts ArtifactStore
	pipeline  Pipeline
	report    ReportFunc
	timeout   time.Duration
	now       func() time.Time
	logger    *log.Logger
}

// NewRunner wires a Runner. report may be nil to skip output checks.
func NewRunner(registry *Registry, artifacts ArtifactStore, pipeline Pipeline, report ReportFunc, timeout time.Duration) *Runner {
	return &Runner{
		registry:  registry,
		artifacts: artifacts,
		pipeline:  pipeline,
		report:    report,
		timeout:   timeout,
		now:       time.Now,
		logger:    log.New(log.Writer(), "[RUNNER] ", log.LstdFlags),
	}
}

// Start launches the pipeline for jobID and returns immediately.
func (r *Runner) Start(jobID string, req PlanRequest) {
	metricJobsCreated.Inc()
	go r.run(jobID, req)
}

func (r *Runner) run(jobID string, req PlanRequest) {
	start := r.now()
	total := len(Steps)

	r.registry.Update(jobID, func(j *Job) {
		j.Status = StatusRunning
		j.StartedAt = &start
		j.Message = "Starting research"
		j.ETASeconds = initialETA(req.DurationDays)
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	onStep := func(step int, message string) {
		completed := step - 1
		elapsed := r.now().Sub(start)
		r.registry.Update(jobID, func(j *Job) {
			j.CurrentStep = step
			j.ProgressPercent = completed * 100 / total
			j.Message = message
			j.ETASeconds = remainingETA(elapsed, completed, total, req.DurationDays)
		})
	}

	html, err := r.pipeline.Run(ctx, req, onStep)
	if err == nil {
		html = helpers.StripCodeFence(html)
		if html == "" {
			err = NewError(KindPipeline, "pipeline returned an empty itinerary")
		}
	}
	elapsed := r.now().Sub(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = NewError(KindPipeline, "planning timed out after %s", r.timeout)
		}
		r.logger.Printf("job %s failed after %s: %v", jobID, elapsed.Round(time.Second), err)
		metricJobsFailed.Inc()
		metricJobDuration.Observe(elapsed.Seconds())
		r.registry.Update(jobID, func(j *Job) {
			j.Status = StatusError
			j.Message = "Trip planning failed"
			j.ErrorDetail = err.Error()
			j.ETASeconds = 0
		})
		return
	}

	if err := r.artifacts.Put(ctx, Artifact{JobID: jobID, HTML: html, CreatedAt: r.now()}); err != nil {
		r.logger.Printf("job %s: store artifact: %v", jobID, err)
		metricJobsFailed.Inc()
		metricJobDuration.Observe(elapsed.Seconds())
		r.registry.Update(jobID, func(j *Job) {
			j.Status = StatusError
			j.Message = "Trip planning failed"
			j.ErrorDetail = err.Error()
			j.ETASeconds = 0
		})
		return
	}

	r.logger.Printf("job %s completed in %s", jobID, elapsed.Round(time.Second))
	metricJobsCompleted.Inc()
	metricJobDuration.Observe(elapsed.Seconds())
	r.registry.Update(jobID, func(j *Job) {
		j.Status = StatusCompleted
		j.CurrentStep = total
		j.ProgressPercent = 100
		j.Message = "Trip plan ready!"
		j.ETASeconds = 0
		j.HasResult = true
	})

	if r.report != nil {
		r.registry.Annotate(jobID, r.report(html))
	} else {
		r.registry.Annotate(jobID, nil)
	}
}

// initialETA estimates total runtime before any stage has finished. Longer
// trips mean more places to research and verify, so the estimate scales with
// the requested duration.
func initialETA(durationDays int) int {
	return 60 + durationDays*10
}

// remainingETA projects remaining time from measured per-stage pace once at
// least one stage has completed, falling back to the initial estimate.
func remainingETA(elapsed time.Duration, completed, total, durationDays int) int {
	if completed <= 0 {
		return initialETA(durationDays)
	}
	perStep := elapsed / time.Duration(completed)
	return int(perStep.Seconds()) * (total - completed)
}
