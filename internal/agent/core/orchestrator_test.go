package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zora-digital/tripweaver/config"
	"github.com/zora-digital/tripweaver/internal/places"
	"github.com/zora-digital/tripweaver/internal/search/serper"
	"github.com/zora-digital/tripweaver/internal/trip"
)

type scriptedLLM struct {
	prompts   []string
	responses []string
	failAt    int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	out, _, _, err := s.GenerateWithTokens(ctx, prompt)
	return out, err
}

func (s *scriptedLLM) GenerateWithTokens(_ context.Context, prompt string) (string, int64, int64, error) {
	call := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if s.failAt > 0 && call+1 == s.failAt {
		return "", 0, 0, errors.New("model unavailable")
	}
	if call >= len(s.responses) {
		return "", 0, 0, errors.New("unexpected call")
	}
	return s.responses[call], 100, 200, nil
}

func (s *scriptedLLM) CalculateCost(in, out int64) float64 { return float64(in+out) / 1000.0 * 0.001 }
func (s *scriptedLLM) Model() string                       { return "test-model" }

type stubSearch struct{ results []serper.Result }

func (s stubSearch) Discover(_ context.Context, _ string, _ int) ([]serper.Result, error) {
	return s.results, nil
}

type stubPlaces struct{ found []places.Place }

func (s stubPlaces) TextSearch(_ context.Context, _ string, _ int) ([]places.Place, error) {
	return s.found, nil
}

func testRequest() trip.PlanRequest {
	return trip.PlanRequest{
		Destination:  "Lisbon, Portugal",
		DurationDays: 4,
		BudgetLevel:  "Moderate",
		TravelStyle:  []string{"Cultural"},
		ClientID:     "c1",
	}
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		JobTimeout:      time.Minute,
		StageTimeout:    time.Minute,
		VerifyLinks:     false,
		MaxRetainedJobs: 10,
		JobRetention:    time.Hour,
	}
}

func TestOrchestratorRunsStagesInOrder(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"research notes", "validated notes", "<html>plan</html>"}}
	search := stubSearch{results: []serper.Result{{Title: "Guide", URL: "https://example.com/guide", Snippet: "tips"}}}
	finder := stubPlaces{found: []places.Place{{
		Name:             "Hotel Avenida",
		FormattedAddress: "Av. da Liberdade 1, Lisbon",
		MapsURL:          places.MapsURL("Hotel Avenida", "p1"),
		Rating:           4.4,
		RatingsTotal:     321,
	}}}
	o := NewOrchestrator(llm, search, finder, nil, nil, pipelineConfig())

	var steps []int
	html, err := o.Run(context.Background(), testRequest(), func(step int, _ string) {
		steps = append(steps, step)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if html != "<html>plan</html>" {
		t.Fatalf("unexpected output: %q", html)
	}
	if len(steps) != 3 || steps[0] != 1 || steps[1] != 2 || steps[2] != 3 {
		t.Fatalf("steps out of order: %v", steps)
	}

	// The research prompt carries the verified place evidence; the review
	// prompt carries the research; the plan prompt carries the validated set.
	if !strings.Contains(llm.prompts[0], "Hotel Avenida") || !strings.Contains(llm.prompts[0], "query_place_id=p1") {
		t.Fatalf("research prompt missing place evidence")
	}
	if !strings.Contains(llm.prompts[1], "research notes") {
		t.Fatalf("review prompt missing research")
	}
	if !strings.Contains(llm.prompts[2], "validated notes") || !strings.Contains(llm.prompts[2], "noopener noreferrer") {
		t.Fatalf("plan prompt missing validated research or link rules")
	}
}

func TestOrchestratorStageFailureStopsRun(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"research notes"}, failAt: 2}
	o := NewOrchestrator(llm, nil, nil, nil, nil, pipelineConfig())

	var steps []int
	_, err := o.Run(context.Background(), testRequest(), func(step int, _ string) {
		steps = append(steps, step)
	})
	if err == nil || !strings.Contains(err.Error(), "review stage") {
		t.Fatalf("expected review stage error, got %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("pipeline should stop after the failed stage, steps=%v", steps)
	}
}

func TestOrchestratorEmptyStageOutputIsError(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"   "}}
	o := NewOrchestrator(llm, nil, nil, nil, nil, pipelineConfig())

	_, err := o.Run(context.Background(), testRequest(), func(int, string) {})
	if err == nil || !strings.Contains(err.Error(), "empty response") {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestOrchestratorVerifyFetchBounded(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"see https://example.com/a and https://example.com/b and https://example.com/c and https://www.google.com/maps/search/?api=1&query=x",
		"validated",
		"<html></html>",
	}}
	var fetched []string
	reader := PageReader(func(_ context.Context, u string) (string, error) {
		fetched = append(fetched, u)
		return "page text", nil
	})
	cfg := pipelineConfig()
	cfg.VerifyLinks = true
	cfg.MaxVerifyFetch = 2
	o := NewOrchestrator(llm, nil, nil, reader, nil, cfg)

	if _, err := o.Run(context.Background(), testRequest(), func(int, string) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fetched) != 2 {
		t.Fatalf("expected 2 verification fetches, got %v", fetched)
	}
	for _, u := range fetched {
		if strings.Contains(u, "google.com/maps") {
			t.Fatalf("maps links must not be fetched: %v", fetched)
		}
	}
	if !strings.Contains(llm.prompts[1], "page text") {
		t.Fatalf("review prompt missing fetched excerpts")
	}
}
