package trip

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubPipeline struct {
	html  string
	err   error
	delay time.Duration
	steps []string
}

func (s *stubPipeline) Run(ctx context.Context, _ PlanRequest, onStep func(int, string)) (string, error) {
	for i, msg := range s.steps {
		onStep(i+1, msg)
	}
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.html, s.err
}

func waitTerminal(t *testing.T, r *Registry, id string) Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := r.Get(id); ok && job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return Job{}
}

func TestRunnerSuccess(t *testing.T) {
	reg := newTestRegistry()
	arts := NewMemoryArtifacts()
	pipe := &stubPipeline{
		html:  "```html\n<html><body>Trip</body></html>\n```",
		steps: []string{"Researching places", "Verifying findings", "Building itinerary"},
	}
	report := func(html string) []string { return []string{"advisory"} }
	runner := NewRunner(reg, arts, pipe, report, time.Minute)

	job := reg.Create("c1")
	runner.Start(job.ID, validRequest())

	got := waitTerminal(t, reg, job.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", got)
	}
	if got.ProgressPercent != 100 || !got.HasResult {
		t.Fatalf("terminal snapshot incomplete: %+v", got)
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != "advisory" {
		t.Fatalf("report warnings not attached: %+v", got)
	}

	art, ok, err := arts.Get(context.Background(), job.ID)
	if err != nil || !ok {
		t.Fatalf("artifact missing: %v", err)
	}
	if strings.Contains(art.HTML, "```") {
		t.Fatalf("code fence not stripped: %q", art.HTML)
	}
}

func TestRunnerPipelineError(t *testing.T) {
	reg := newTestRegistry()
	runner := NewRunner(reg, NewMemoryArtifacts(), &stubPipeline{err: errors.New("model unavailable")}, nil, time.Minute)

	job := reg.Create("c1")
	runner.Start(job.ID, validRequest())

	got := waitTerminal(t, reg, job.ID)
	if got.Status != StatusError || got.ErrorDetail == "" {
		t.Fatalf("expected error state with detail: %+v", got)
	}
	if got.HasResult {
		t.Fatalf("failed job must not advertise a result")
	}
}

func TestRunnerEmptyOutputIsError(t *testing.T) {
	reg := newTestRegistry()
	runner := NewRunner(reg, NewMemoryArtifacts(), &stubPipeline{html: "```html\n\n```"}, nil, time.Minute)

	job := reg.Create("c1")
	runner.Start(job.ID, validRequest())

	got := waitTerminal(t, reg, job.ID)
	if got.Status != StatusError {
		t.Fatalf("empty itinerary must fail the job: %+v", got)
	}
}

func TestRunnerTimeout(t *testing.T) {
	reg := newTestRegistry()
	runner := NewRunner(reg, NewMemoryArtifacts(), &stubPipeline{html: "<html></html>", delay: time.Second}, nil, 20*time.Millisecond)

	job := reg.Create("c1")
	runner.Start(job.ID, validRequest())

	got := waitTerminal(t, reg, job.ID)
	if got.Status != StatusError || !strings.Contains(got.ErrorDetail, "timed out") {
		t.Fatalf("expected timeout error, got %+v", got)
	}
}

func TestRunnerProgressFromSteps(t *testing.T) {
	reg := newTestRegistry()
	arts := NewMemoryArtifacts()
	pipe := &stubPipeline{html: "<html></html>", steps: []string{"step one", "step two", "step three"}}
	runner := NewRunner(reg, arts, pipe, nil, time.Minute)

	job := reg.Create("c1")
	ch, cancel, _ := reg.Watch(job.ID)
	defer cancel()
	runner.Start(job.ID, validRequest())
	waitTerminal(t, reg, job.ID)

	maxPercent := -1
	for {
		select {
		case snap := <-ch:
			if snap.ProgressPercent < maxPercent {
				t.Fatalf("progress went backward: %d < %d", snap.ProgressPercent, maxPercent)
			}
			maxPercent = snap.ProgressPercent
			if snap.Status.Terminal() {
				if maxPercent != 100 {
					t.Fatalf("terminal percent %d", maxPercent)
				}
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("terminal snapshot never broadcast")
		}
	}
}
