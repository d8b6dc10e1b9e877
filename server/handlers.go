package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"listing-counter/config"
	"listing-counter/models"
	"listing-counter/services"
	"listing-counter/storage"
	"listing-counter/utils"
)

// ChartSource builds chart data for one region.
type ChartSource interface {
	Chart(region string) (*models.Chart, error)
}

// Exporter streams the raw series file.
type Exporter interface {
	Export(w io.Writer) error
}

// CycleSubmitter queues a collection cycle.
type CycleSubmitter interface {
	Submit(trigger string) (*services.Job, error)
}

type Handlers struct {
	catalog  *config.Catalog
	series   ChartSource
	exporter Exporter
	runner   CycleSubmitter
	logger   *utils.Logger

	// waitTimeout bounds ?wait=true on the force-scrape endpoint.
	waitTimeout time.Duration
	now         func() time.Time
}

func NewHandlers(catalog *config.Catalog, series ChartSource, exporter Exporter, runner CycleSubmitter, waitTimeout time.Duration, logger *utils.Logger) *Handlers {
	return &Handlers{
		catalog:     catalog,
		series:      series,
		exporter:    exporter,
		runner:      runner,
		logger:      logger,
		waitTimeout: waitTimeout,
		now:         time.Now,
	}
}

// HandleRegions - GET /api/regions
func (h *Handlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]string{"regions": h.catalog.RegionNames()})
}

// HandleSeries - GET /api/series?city=
func (h *Handlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)

	city := r.URL.Query().Get("city")
	if city == "" {
		city = h.catalog.RegionNames()[0]
	}
	if _, ok := h.catalog.Region(city); !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown region %q", city))
		return
	}

	chart, err := h.series.Chart(city)
	if err != nil {
		logger.Error("[server] Chart for %s failed: %v", city, err)
		writeJSONError(w, http.StatusInternalServerError, "could not read series")
		return
	}
	respondWithJSON(w, http.StatusOK, chart)
}

// HandleData - GET /data, the series file shown inline.
func (h *Handlers) HandleData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "inline")
	h.streamSeries(w, r)
}

// HandleExport - GET /export, the series file as a download.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("listing-counts-%s.csv", h.now().Format(models.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	h.streamSeries(w, r)
}

func (h *Handlers) streamSeries(w http.ResponseWriter, r *http.Request) {
	err := h.exporter.Export(w)
	if errors.Is(err, storage.ErrNoData) {
		w.Header().Del("Content-Disposition")
		http.Error(w, "No data yet, wait for the first collection cycle.", http.StatusNotFound)
		return
	}
	if err != nil {
		// Headers may already be sent; all that is left is to log.
		loggerFrom(r.Context(), h.logger).Error("[server] Export failed: %v", err)
	}
}

type forceScrapeResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Records int    `json:"records,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleForceScrape - GET|POST /force-scrape[?wait=true]
func (h *Handlers) HandleForceScrape(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)

	job, err := h.runner.Submit("force")
	switch {
	case errors.Is(err, services.ErrQueueFull):
		writeJSONError(w, http.StatusTooManyRequests, "a collection cycle is already queued")
		return
	case errors.Is(err, services.ErrRunnerStopped):
		writeJSONError(w, http.StatusServiceUnavailable, "shutting down")
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		respondWithJSON(w, http.StatusAccepted, forceScrapeResponse{JobID: job.ID, Status: "queued"})
		return
	}

	ctx := r.Context()
	if h.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.waitTimeout)
		defer cancel()
	}

	if err := job.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			respondWithJSON(w, http.StatusAccepted, forceScrapeResponse{JobID: job.ID, Status: "running"})
			return
		}
		logger.Error("[server] Forced cycle %s failed: %v", job.ID, err)
		respondWithJSON(w, http.StatusInternalServerError, forceScrapeResponse{JobID: job.ID, Status: "failed", Error: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, forceScrapeResponse{JobID: job.ID, Status: "completed", Records: len(job.Records())})
}
