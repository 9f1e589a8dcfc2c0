package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zora-digital/tripweaver/config"
	"github.com/zora-digital/tripweaver/internal/agent/core"
	"github.com/zora-digital/tripweaver/internal/agent/telemetry"
	"github.com/zora-digital/tripweaver/internal/places"
	"github.com/zora-digital/tripweaver/internal/render"
	"github.com/zora-digital/tripweaver/internal/report"
	"github.com/zora-digital/tripweaver/internal/search/serper"
	"github.com/zora-digital/tripweaver/internal/trip"
)

// Run assembles the service from cfg and serves until the listener fails.
func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	if cfg.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key not configured (providers.openai.api_key)")
	}
	llm := core.NewOpenAIProvider(cfg.Providers.OpenAI)
	tele := telemetry.New(cfg.Telemetry)

	var searcher core.Searcher
	if cfg.Providers.Serper.APIKey != "" {
		searcher = serper.New(cfg.Providers.Serper.APIKey, cfg.Providers.Serper.Timeout)
	}
	var finder core.PlaceFinder
	if cfg.Providers.Places.APIKey != "" {
		finder = places.New(cfg.Providers.Places.APIKey, cfg.Providers.Places.Timeout)
	}
	var reader core.PageReader
	if cfg.Pipeline.VerifyLinks {
		reader = core.ReadabilityReader(nil)
	}
	orch := core.NewOrchestrator(llm, searcher, finder, reader, tele, cfg.Pipeline)

	var artifacts trip.ArtifactStore
	switch cfg.Storage.Backend {
	case "redis":
		store, err := trip.NewRedisArtifacts(ctx, cfg.Storage.Redis)
		if err != nil {
			return fmt.Errorf("redis artifact store: %w", err)
		}
		defer store.Close()
		artifacts = store
	default:
		artifacts = trip.NewMemoryArtifacts()
	}

	registry := trip.NewRegistry(cfg.Pipeline.JobRetention, cfg.Pipeline.SweepInterval, cfg.Pipeline.MaxRetainedJobs)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go registry.StartJanitor(janitorCtx)

	ledger := trip.NewLedger(cfg.Limits)
	validator := report.New(cfg.Report)
	runner := trip.NewRunner(registry, artifacts, orch, validator.Validate, cfg.Pipeline.JobTimeout)

	var renderer render.PDFRenderer
	if cfg.Rendering.Enabled {
		renderer = render.NewChromePDF(cfg.Rendering.Timeout)
	}

	api := e.Group("/api")
	th := NewTripsHandler(registry, ledger, runner, artifacts, renderer, cfg.Limits.EstimatedCostPerTrip)
	th.Register(api.Group("/trips"))
	uh := &UsageHandler{Ledger: ledger}
	uh.Register(api.Group("/usage"))

	defer tele.Shutdown()

	if addr == "" {
		addr = cfg.General.Listen
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
