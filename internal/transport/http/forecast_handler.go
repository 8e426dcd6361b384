// Package http provides the chi handlers of the dashboard-facing data API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fincast/internal/association"
	"fincast/internal/dataset"
	apierrors "fincast/internal/errors"
	"fincast/internal/forecast"
	"fincast/internal/services"
	"fincast/internal/target"
)

// ForecastService is the service surface the handlers depend on
type ForecastService interface {
	Run(ctx context.Context, years []int) (*services.Report, error)
	Scenarios(ctx context.Context, indicator string, years []int) (forecast.ScenarioTable, error)
	Matrix() *association.Matrix
}

// ForecastHandler serves the forecast, matrix and analysis tables
type ForecastHandler struct {
	service      ForecastService
	years        []int
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler

	reportMu sync.Mutex
	report   *services.Report
}

// NewForecastHandler creates a forecast handler. The batch report is
// computed lazily on first use and cached for the process lifetime; the
// inputs are immutable so the report never goes stale.
func NewForecastHandler(service ForecastService, years []int, logger *slog.Logger) *ForecastHandler {
	if len(years) == 0 {
		years = forecast.DefaultYears()
	}
	return &ForecastHandler{
		service:      service,
		years:        years,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the data API routes
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", h.GetReport)
		r.Get("/forecast/{indicator}", h.GetForecast)
		r.Get("/matrix", h.GetMatrix)
		r.Get("/matrix/summary", h.GetMatrixSummary)
		r.Get("/validation", h.GetValidation)
		r.Get("/growth", h.GetGrowth)
		r.Get("/drivers", h.GetDrivers)
		r.Get("/target-gap", h.GetTargetGap)
		r.Get("/milestones", h.GetMilestones)
	})
}

// batchReport returns the cached batch report, computing it on first use.
// Only successful runs are cached: a transient failure is reported to the
// caller and retried on the next request instead of poisoning the cache.
func (h *ForecastHandler) batchReport(ctx context.Context) (*services.Report, error) {
	h.reportMu.Lock()
	defer h.reportMu.Unlock()

	if h.report != nil {
		return h.report, nil
	}

	report, err := h.service.Run(ctx, h.years)
	if err != nil {
		return nil, err
	}
	h.report = report
	return report, nil
}

// GetReport returns the complete batch report
func (h *ForecastHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.batchReport(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// GetForecast returns one indicator's scenario table. Years default to
// the configured horizon and can be overridden with ?years=2025,2026.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	indicator := chi.URLParam(r, "indicator")

	if !h.service.Matrix().HasIndicator(indicator) {
		h.logger.WarnContext(ctx, "forecast requested for unknown indicator",
			slog.String("indicator", indicator))
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("indicator "+indicator))
		return
	}

	years, err := parseYears(r.URL.Query().Get("years"), h.years)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("years", err.Error()))
		return
	}

	table, err := h.service.Scenarios(ctx, indicator, years)
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			h.errorHandler.HandleError(w, r, apierrors.ForecastFailedError(indicator, err))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, table)
}

// GetMatrix returns the association matrix as a labeled table
func (h *ForecastHandler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	matrix := h.service.Matrix()

	type matrixResponse struct {
		Events     []string                      `json:"events"`
		Indicators []string                      `json:"indicators"`
		Impacts    map[string]map[string]float64 `json:"impacts"`
	}

	resp := matrixResponse{
		Events:     matrix.Events(),
		Indicators: matrix.Indicators(),
		Impacts:    make(map[string]map[string]float64, len(matrix.Events())),
	}
	for _, event := range resp.Events {
		row := make(map[string]float64, len(resp.Indicators))
		for _, indicator := range resp.Indicators {
			row[indicator] = matrix.Impact(event, indicator)
		}
		resp.Impacts[event] = row
	}

	render.JSON(w, r, resp)
}

// GetMatrixSummary returns one row per evidenced relationship
func (h *ForecastHandler) GetMatrixSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Matrix().Summary())
}

// GetValidation returns the back-validation results with pass rate
func (h *ForecastHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	report, err := h.batchReport(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"results":   report.Validation,
		"pass_rate": report.PassRate,
	})
}

// GetGrowth returns the long-form growth table
func (h *ForecastHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	report, err := h.batchReport(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report.Growth)
}

// GetDrivers returns the key-driver ranking
func (h *ForecastHandler) GetDrivers(w http.ResponseWriter, r *http.Request) {
	report, err := h.batchReport(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report.Drivers)
}

// GetTargetGap returns progress against the NFIS-II policy target
func (h *ForecastHandler) GetTargetGap(w http.ResponseWriter, r *http.Request) {
	report, err := h.batchReport(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report.TargetGap)
}

// GetMilestones returns interpolated milestone crossing years for the
// account-ownership base forecast. Custom targets via ?targets=55,65.
func (h *ForecastHandler) GetMilestones(w http.ResponseWriter, r *http.Request) {
	report, err := h.batchReport(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	raw := r.URL.Query().Get("targets")
	if raw == "" {
		render.JSON(w, r, report.Milestones)
		return
	}

	targets, err := parseTargets(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("targets", err.Error()))
		return
	}

	ownership, ok := report.ForecastOf("Account Ownership Rate")
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("account ownership forecast"))
		return
	}

	series := make([]dataset.YearValue, len(ownership.Table.Points))
	for i, p := range ownership.Table.Points {
		series[i] = dataset.YearValue{Year: p.Year, Value: p.Base}
	}
	render.JSON(w, r, target.Milestones(series, targets))
}

func parseYears(raw string, defaults []int) ([]int, error) {
	if raw == "" {
		return defaults, nil
	}

	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, part := range parts {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.New("years must be a comma-separated list of integers")
		}
		years = append(years, year)
	}
	return years, nil
}

func parseTargets(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	targets := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.New("targets must be a comma-separated list of numbers")
		}
		targets = append(targets, value)
	}
	return targets, nil
}
