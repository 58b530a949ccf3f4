package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/ingest"
	"github.com/Veraticus/cohortlens/internal/model"
	"github.com/Veraticus/cohortlens/internal/period"
	reportpkg "github.com/Veraticus/cohortlens/internal/report"
	"github.com/Veraticus/cohortlens/internal/storage"
)

// defaultReportLimit caps GET /api/reports when no limit is given.
const defaultReportLimit = 20

// errBadRequest marks request problems that are not data or config errors.
var errBadRequest = errors.New("bad request")

type dateRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type analyzeRequest struct {
	CurrentPeriod  *dateRangeRequest `json:"currentPeriod"`
	PreviousPeriod *dateRangeRequest `json:"previousPeriod"`
	Preset         string            `json:"preset"`
	Weights        json.RawMessage   `json:"weights"`
	CLV            json.RawMessage   `json:"clv"`
	Customers      json.RawMessage   `json:"customers"`
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, common.ErrInvalidData),
		errors.Is(err, common.ErrNoCustomers),
		errors.Is(err, period.ErrUnknownPreset),
		errors.Is(err, storage.ErrInvalidCustomer),
		errors.Is(err, storage.ErrInvalidTransaction),
		errors.Is(err, storage.ErrEmptyString),
		common.IsConfigError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// healthCheck handles the health check endpoint.
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cohortlens",
	})
}

type presetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) listPeriods(c *gin.Context) {
	names := period.Names()
	presets := make([]presetInfo, 0, len(names))
	for _, name := range names {
		presets = append(presets, presetInfo{Name: name, Description: period.Describe(name)})
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets, "default": period.DefaultPreset})
}

// engine builds an analytics engine from the server settings. Weight and CLV
// objects from a request are decoded over copies of those settings, so fields
// a request leaves out keep their configured values.
func (s *Server) engine(weights, clv json.RawMessage) (*analytics.Engine, error) {
	w := s.weights
	if len(weights) > 0 {
		if err := json.Unmarshal(weights, &w); err != nil {
			return nil, fmt.Errorf("%w: weights: %w", errBadRequest, err)
		}
	}
	p := s.clv
	if len(clv) > 0 {
		if err := json.Unmarshal(clv, &p); err != nil {
			return nil, fmt.Errorf("%w: clv: %w", errBadRequest, err)
		}
	}
	return analytics.NewEngine(
		analytics.WithWeights(w),
		analytics.WithCLVParams(p),
		analytics.WithClock(s.now),
	), nil
}

// resolvePeriods picks the comparison windows from a preset or from explicit
// YYYY-MM-DD bounds.
func (s *Server) resolvePeriods(preset string, cur, prev *dateRangeRequest) (current, previous model.Period, err error) {
	if cur == nil && prev == nil {
		if preset == "" {
			preset = period.DefaultPreset
		}
		return period.Resolve(preset, s.now())
	}
	if cur == nil || prev == nil {
		return model.Period{}, model.Period{}, fmt.Errorf("%w: currentPeriod and previousPeriod must be given together", errBadRequest)
	}

	var days [4]time.Time
	for i, raw := range []string{cur.Start, cur.End, prev.Start, prev.End} {
		day, err := period.ParseDay(raw)
		if err != nil {
			return model.Period{}, model.Period{}, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		days[i] = day
	}

	current, previous, err = period.Custom(days[0], days[1], days[2], days[3])
	if err != nil {
		return model.Period{}, model.Period{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return current, previous, nil
}

// analyzeUpload runs an analysis over customers supplied in the request body.
func (s *Server) analyzeUpload(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if len(req.Customers) == 0 {
		respondError(c, fmt.Errorf("%w: customers is required", errBadRequest))
		return
	}

	customers, err := ingest.ReadJSON(bytes.NewReader(req.Customers))
	if err != nil {
		respondError(c, err)
		return
	}

	current, previous, err := s.resolvePeriods(req.Preset, req.CurrentPeriod, req.PreviousPeriod)
	if err != nil {
		respondError(c, err)
		return
	}

	engine, err := s.engine(req.Weights, req.CLV)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := engine.Run(c.Request.Context(), customers, current, previous, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// analyzeStored runs a preset analysis over the stored customers. Results are
// cached per preset and day, and saved as reports.
func (s *Server) analyzeStored(c *gin.Context) {
	ctx := c.Request.Context()
	preset := c.DefaultQuery("preset", period.DefaultPreset)

	current, previous, err := period.Resolve(preset, s.now())
	if err != nil {
		respondError(c, err)
		return
	}

	key := ReportKey(preset, s.now())
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("Report cache unavailable", "error", err)
	} else if ok {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	}

	customers, err := s.store.GetCustomers(ctx, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(customers) == 0 {
		respondError(c, common.ErrNoCustomers)
		return
	}

	engine, err := s.engine(nil, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := engine.Run(ctx, customers, current, previous, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := reportpkg.Record(report)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.SaveReport(ctx, record); err != nil {
		respondError(c, err)
		return
	}
	payload := record.Payload
	if err := s.cache.Set(ctx, key, payload); err != nil {
		slog.Warn("Failed to cache report", "key", key, "error", err)
	}

	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// importCustomers stores a JSON customer array and drops cached reports.
func (s *Server) importCustomers(c *gin.Context) {
	ctx := c.Request.Context()

	customers, err := ingest.ReadJSON(c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.SaveCustomers(ctx, customers); err != nil {
		respondError(c, err)
		return
	}
	s.invalidate(ctx)

	total, err := s.store.CustomerCount(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"imported":       len(customers),
		"totalCustomers": total,
	})
}

func (s *Server) deleteCustomer(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.store.DeleteCustomer(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	s.invalidate(ctx)

	c.Status(http.StatusNoContent)
}

func (s *Server) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("Failed to invalidate report cache", "error", err)
	}
}

func (s *Server) listReports(c *gin.Context) {
	limit := defaultReportLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = n
	}

	reports, err := s.store.ListReports(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (s *Server) getReport(c *gin.Context) {
	report, err := s.store.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", report.Payload)
}
