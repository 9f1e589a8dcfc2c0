// Package core runs the three-stage trip planning pipeline: research the
// destination against verified data sources, audit the findings, then build
// the HTML itinerary. Stages execute sequentially and each stage start is
// reported through the step callback.
package core

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/zora-digital/tripweaver/config"
	"github.com/zora-digital/tripweaver/internal/agent/telemetry"
	"github.com/zora-digital/tripweaver/internal/places"
	"github.com/zora-digital/tripweaver/internal/search/serper"
	"github.com/zora-digital/tripweaver/internal/trip"
)

// Searcher provides web search context for the research stage.
type Searcher interface {
	Discover(ctx context.Context, q string, k int) ([]serper.Result, error)
}

// PlaceFinder provides verified place data for the research stage.
type PlaceFinder interface {
	TextSearch(ctx context.Context, query string, maxResults int) ([]places.Place, error)
}

// Orchestrator wires the pipeline stages. Search, places and reader are
// optional; a missing collaborator degrades the corresponding enrichment
// rather than failing the run.
type Orchestrator struct {
	llm       LLMProvider
	search    Searcher
	places    PlaceFinder
	readPage  PageReader
	telemetry *telemetry.Telemetry
	cfg       config.PipelineConfig
	logger    *log.Logger
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(llm LLMProvider, search Searcher, finder PlaceFinder, reader PageReader, tel *telemetry.Telemetry, cfg config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		llm:       llm,
		search:    search,
		places:    finder,
		readPage:  reader,
		telemetry: tel,
		cfg:       cfg,
		logger:    log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// Run executes research, review and plan for req and returns the itinerary
// HTML. onStep is called with the 1-based stage index when a stage starts.
func (o *Orchestrator) Run(ctx context.Context, req trip.PlanRequest, onStep func(step int, message string)) (string, error) {
	runStart := time.Now()
	var runCost float64
	var runTokens int64

	stage := func(idx int, name, message, prompt string) (string, error) {
		onStep(idx, message)
		stageStart := time.Now()

		stageCtx := ctx
		if o.cfg.StageTimeout > 0 {
			var cancel context.CancelFunc
			stageCtx, cancel = context.WithTimeout(ctx, o.cfg.StageTimeout)
			defer cancel()
		}

		out, inTok, outTok, err := o.llm.GenerateWithTokens(stageCtx, prompt)
		cost := o.llm.CalculateCost(inTok, outTok)
		runCost += cost
		runTokens += inTok + outTok
		if o.telemetry != nil {
			o.telemetry.RecordStageEvent(telemetry.StageEvent{
				JobID:      req.ClientID,
				Stage:      name,
				Duration:   time.Since(stageStart),
				Success:    err == nil,
				Cost:       cost,
				TokensUsed: inTok + outTok,
				Model:      o.llm.Model(),
			})
		}
		if err != nil {
			return "", fmt.Errorf("%s stage: %w", name, err)
		}
		if strings.TrimSpace(out) == "" {
			return "", fmt.Errorf("%s stage: empty response", name)
		}
		return out, nil
	}

	verifiedPlaces := o.gatherPlaces(ctx, req)
	searchContext := o.gatherSearch(ctx, req)

	research, err := stage(1, trip.Steps[0], "Researching verified places", researchPrompt(req, verifiedPlaces, searchContext))
	if err != nil {
		o.finishRun(req, runStart, runCost, runTokens, false, err)
		return "", err
	}

	excerpts := o.gatherExcerpts(ctx, research)
	validated, err := stage(2, trip.Steps[1], "Verifying every place and address", reviewPrompt(req, research, excerpts))
	if err != nil {
		o.finishRun(req, runStart, runCost, runTokens, false, err)
		return "", err
	}

	html, err := stage(3, trip.Steps[2], "Building your day-by-day itinerary", planPrompt(req, validated))
	if err != nil {
		o.finishRun(req, runStart, runCost, runTokens, false, err)
		return "", err
	}

	o.finishRun(req, runStart, runCost, runTokens, true, nil)
	return html, nil
}

func (o *Orchestrator) finishRun(req trip.PlanRequest, start time.Time, cost float64, tokens int64, success bool, err error) {
	if o.telemetry == nil {
		return
	}
	event := telemetry.RunEvent{
		JobID:      req.ClientID,
		Duration:   time.Since(start),
		Success:    success,
		Cost:       cost,
		TokensUsed: tokens,
	}
	if err != nil {
		event.Error = err.Error()
	}
	o.telemetry.RecordRunEvent(event)
}

// gatherPlaces pulls verified place data for the categories the trip needs.
// Failures only shrink the evidence pack.
func (o *Orchestrator) gatherPlaces(ctx context.Context, req trip.PlanRequest) []places.Place {
	if o.places == nil {
		return nil
	}
	queries := []string{
		"hotels in " + req.Destination,
		"restaurants in " + req.Destination,
		"tourist attractions in " + req.Destination,
	}
	for _, style := range req.TravelStyle {
		queries = append(queries, style+" in "+req.Destination)
	}

	var out []places.Place
	for _, q := range queries {
		found, err := o.places.TextSearch(ctx, q, 5)
		if err != nil {
			o.logger.Printf("places search %q: %v", q, err)
			continue
		}
		out = append(out, found...)
	}
	return out
}

func (o *Orchestrator) gatherSearch(ctx context.Context, req trip.PlanRequest) []serper.Result {
	if o.search == nil {
		return nil
	}
	q := fmt.Sprintf("%d day %s itinerary %s", req.DurationDays, strings.Join(req.TravelStyle, " "), req.Destination)
	results, err := o.search.Discover(ctx, q, 10)
	if err != nil {
		o.logger.Printf("web search: %v", err)
		return nil
	}
	return results
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// gatherExcerpts fetches a bounded number of URLs mentioned in the research
// and reduces each to readable text for the review stage.
func (o *Orchestrator) gatherExcerpts(ctx context.Context, research string) map[string]string {
	if o.readPage == nil || !o.cfg.VerifyLinks || o.cfg.MaxVerifyFetch <= 0 {
		return nil
	}
	seen := make(map[string]struct{})
	excerpts := make(map[string]string)
	for _, raw := range urlPattern.FindAllString(research, -1) {
		if len(excerpts) >= o.cfg.MaxVerifyFetch {
			break
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		// Maps links carry no readable page content.
		if strings.Contains(raw, "google.com/maps") {
			continue
		}
		text, err := o.readPage(ctx, raw)
		if err != nil {
			o.logger.Printf("verify fetch %s: %v", raw, err)
			continue
		}
		if text != "" {
			excerpts[raw] = text
		}
	}
	if len(excerpts) == 0 {
		return nil
	}
	return excerpts
}
