package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zora-digital/tripweaver/internal/render"
	"github.com/zora-digital/tripweaver/internal/trip"
)

const streamHeartbeat = 15 * time.Second

// TripsHandler exposes the planning job API: create, progress snapshot,
// progress stream and result retrieval.
type TripsHandler struct {
	Registry      *trip.Registry
	Ledger        *trip.Ledger
	Runner        *trip.Runner
	Artifacts     trip.ArtifactStore
	Renderer      render.PDFRenderer
	EstimatedCost float64
	logger        *log.Logger
}

func NewTripsHandler(registry *trip.Registry, ledger *trip.Ledger, runner *trip.Runner, artifacts trip.ArtifactStore, renderer render.PDFRenderer, estimatedCost float64) *TripsHandler {
	return &TripsHandler{
		Registry:      registry,
		Ledger:        ledger,
		Runner:        runner,
		Artifacts:     artifacts,
		Renderer:      renderer,
		EstimatedCost: estimatedCost,
		logger:        log.New(log.Writer(), "[TRIPS] ", log.LstdFlags),
	}
}

func (h *TripsHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("/:trip_id/progress", h.progress)
	g.GET("/:trip_id/stream", h.stream)
	g.GET("/:trip_id/result", h.result)
	g.GET("/:trip_id/result.pdf", h.resultPDF)
}

// create validates the request, charges the client's quota and launches the
// planning pipeline.
//
//	@Summary	Create trip plan
//	@Tags		trips
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		CreateTripRequest	true	"Trip request"
//	@Success	202		{object}	CreateTripResponse	"Planning started"
//	@Failure	400		{object}	HTTPError
//	@Failure	429		{object}	HTTPError
//	@Router		/api/trips [post]
func (h *TripsHandler) create(c echo.Context) error {
	var body CreateTripRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.ClientID == "" {
		body.ClientID = uuid.NewString()
	}

	req := trip.PlanRequest{
		Destination:         body.Destination,
		DurationDays:        body.DurationDays,
		BudgetLevel:         body.BudgetLevel,
		TravelStyle:         body.TravelStyle,
		SpecialRequirements: body.SpecialRequirements,
		ClientID:            body.ClientID,
	}
	if err := trip.ValidateRequest(&req); err != nil {
		return tripHTTPError(err)
	}
	if err := h.Ledger.CheckAndRecord(req.ClientID, h.EstimatedCost); err != nil {
		return tripHTTPError(err)
	}

	job := h.Registry.Create(req.ClientID)
	h.Runner.Start(job.ID, req)
	h.logger.Printf("job %s accepted for client %s (%s, %d days)", job.ID, req.ClientID, req.Destination, req.DurationDays)

	return c.JSON(http.StatusAccepted, CreateTripResponse{
		TripID:   job.ID,
		ClientID: req.ClientID,
		Status:   string(job.Status),
	})
}

// progress returns the current job snapshot.
//
//	@Summary	Trip progress snapshot
//	@Tags		trips
//	@Param		trip_id	path	string	true	"Trip ID"
//	@Produce	json
//	@Success	200	{object}	trip.Job
//	@Failure	404	{object}	HTTPError
//	@Router		/api/trips/{trip_id}/progress [get]
func (h *TripsHandler) progress(c echo.Context) error {
	job, ok := h.Registry.Get(c.Param("trip_id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trip not found")
	}
	return c.JSON(http.StatusOK, job)
}

// stream delivers job snapshots via Server-Sent Events until the job reaches
// a terminal state.
//
//	@Summary	Trip progress stream
//	@Tags		trips
//	@Param		trip_id	path	string	true	"Trip ID"
//	@Produce	text/event-stream
//	@Success	200	{string}	string
//	@Failure	404	{object}	HTTPError
//	@Failure	503	{object}	HTTPError
//	@Router		/api/trips/{trip_id}/stream [get]
func (h *TripsHandler) stream(c echo.Context) error {
	id := c.Param("trip_id")
	ch, cancelSub, ok := h.Registry.Watch(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trip not found")
	}
	defer cancelSub()

	resp := c.Response()
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	gauge := trip.SSESubscriberGauge()
	gauge.Inc()
	defer gauge.Dec()

	send := func(event string, job trip.Job) error {
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("event: " + event + "\n")); err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Initial snapshot so late subscribers see the current state immediately.
	job, _ := h.Registry.Get(id)
	if err := send("connected", job); err != nil {
		return nil
	}
	if job.Status.Terminal() {
		return nil
	}

	ctx := c.Request().Context()
	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-ch:
			if err := send("update", job); err != nil {
				return nil
			}
			if job.Status.Terminal() {
				return nil
			}
		case <-ticker.C:
			// The heartbeat re-reads the snapshot, so a terminal transition
			// dropped by the broadcast buffer is still delivered.
			job, ok := h.Registry.Get(id)
			if !ok {
				return nil
			}
			if err := send("update", job); err != nil {
				return nil
			}
			if job.Status.Terminal() {
				return nil
			}
		}
	}
}

// result returns the itinerary HTML for a completed job.
//
//	@Summary	Trip result
//	@Tags		trips
//	@Param		trip_id	path	string	true	"Trip ID"
//	@Produce	html
//	@Success	200	{string}	string
//	@Success	202	{object}	trip.Job	"Still planning"
//	@Failure	404	{object}	HTTPError
//	@Router		/api/trips/{trip_id}/result [get]
func (h *TripsHandler) result(c echo.Context) error {
	job, ok := h.Registry.Get(c.Param("trip_id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trip not found")
	}
	switch job.Status {
	case trip.StatusError:
		return echo.NewHTTPError(http.StatusNotFound, "trip planning failed: "+job.ErrorDetail)
	case trip.StatusCompleted:
	default:
		return c.JSON(http.StatusAccepted, job)
	}

	art, ok, err := h.Artifacts.Get(c.Request().Context(), job.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "result expired")
	}
	return c.HTML(http.StatusOK, art.HTML)
}

// resultPDF returns the itinerary as PDF, rendering it on first request and
// caching the bytes on the artifact.
//
//	@Summary	Trip result as PDF
//	@Tags		trips
//	@Param		trip_id	path	string	true	"Trip ID"
//	@Produce	application/pdf
//	@Success	200	{string}	binary
//	@Success	202	{object}	trip.Job	"Still planning"
//	@Failure	404	{object}	HTTPError
//	@Failure	503	{object}	HTTPError	"Rendering unavailable"
//	@Router		/api/trips/{trip_id}/result.pdf [get]
func (h *TripsHandler) resultPDF(c echo.Context) error {
	job, ok := h.Registry.Get(c.Param("trip_id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trip not found")
	}
	switch job.Status {
	case trip.StatusError:
		return echo.NewHTTPError(http.StatusNotFound, "trip planning failed: "+job.ErrorDetail)
	case trip.StatusCompleted:
	default:
		return c.JSON(http.StatusAccepted, job)
	}
	if h.Renderer == nil {
		return tripHTTPError(trip.NewError(trip.KindRenderingUnavailable, "PDF rendering is not enabled"))
	}

	ctx := c.Request().Context()
	art, ok, err := h.Artifacts.Get(ctx, job.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "result expired")
	}

	if len(art.PDF) == 0 {
		pdf, err := h.Renderer.Render(ctx, art.HTML)
		if err != nil {
			h.logger.Printf("job %s: render pdf: %v", job.ID, err)
			return tripHTTPError(trip.NewError(trip.KindRenderingUnavailable, "PDF rendering failed"))
		}
		if err := h.Artifacts.PutPDF(ctx, job.ID, pdf); err != nil {
			h.logger.Printf("job %s: cache pdf: %v", job.ID, err)
		}
		art.PDF = pdf
	}
	return c.Blob(http.StatusOK, "application/pdf", art.PDF)
}

// UsageHandler exposes the read-only usage snapshot.
type UsageHandler struct {
	Ledger *trip.Ledger
}

func (h *UsageHandler) Register(g *echo.Group) {
	g.GET("/:client_id", h.snapshot)
}

// snapshot reports the client's consumption against every limit.
//
//	@Summary	Usage snapshot
//	@Tags		usage
//	@Param		client_id	path	string	true	"Client ID"
//	@Produce	json
//	@Success	200	{object}	trip.UsageSnapshot
//	@Router		/api/usage/{client_id} [get]
func (h *UsageHandler) snapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ledger.Snapshot(c.Param("client_id")))
}

// tripHTTPError maps job-core error kinds onto transport status codes.
func tripHTTPError(err error) error {
	msg := err.Error()
	switch trip.KindOf(err) {
	case trip.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	case trip.KindLimit:
		return echo.NewHTTPError(http.StatusTooManyRequests, msg)
	case trip.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, msg)
	case trip.KindNotReady:
		return echo.NewHTTPError(http.StatusAccepted, msg)
	case trip.KindRenderingUnavailable:
		return echo.NewHTTPError(http.StatusServiceUnavailable, msg)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, msg)
	}
}
