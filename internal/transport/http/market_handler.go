package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "capboard/internal/errors"
	"capboard/internal/exporter"
	"capboard/internal/marketmetrics"
	"capboard/internal/middleware"
	"capboard/internal/services"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// tableQuery holds the query parameters shared by the market routes
type tableQuery struct {
	Top        int    `query:"top" validate:"omitempty,min=1,max=100"`
	ReturnsTop int    `query:"returns_top" validate:"omitempty,min=1,max=100"`
	Period     string `query:"period" validate:"omitempty,period"`
	Window     string `query:"window" validate:"omitempty,oneof=1y 3y"`
	Format     string `query:"format" validate:"omitempty,oneof=json csv xlsx"`
	Entities   string `query:"entities" validate:"omitempty,max=1000"`
}

func (q tableQuery) buildOptions() services.BuildOptions {
	return services.BuildOptions{
		Top:        q.Top,
		ReturnsTop: q.ReturnsTop,
		Period:     marketmetrics.Period(strings.ToLower(q.Period)),
		Entities:   splitList(q.Entities),
	}
}

// splitList splits a comma separated query value, dropping empty items
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// MarketHandler serves the market-cap dashboard tables
type MarketHandler struct {
	service      MarketService
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(service MarketService, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MarketHandler {
	if validator == nil {
		validator = middleware.NewValidator()
	}
	return &MarketHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "market_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the market routes
func (h *MarketHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/caps", h.GetMarketCaps)
	r.Get("/returns", h.GetReturns)
	r.Get("/volatility", h.GetVolatility)
	r.Get("/dashboard", h.GetDashboard)

	r.Route("/entities/{name}", func(r chi.Router) {
		r.Get("/", h.GetEntity)
		r.Get("/caps", h.GetEntityCaps)
	})

	return r
}

// GetMarketCaps handles GET /api/market/caps
func (h *MarketHandler) GetMarketCaps(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r, formatJSON, formatCSV)
	if !ok {
		return
	}

	ranking, err := h.service.MarketCaps(r.Context(), q.buildOptions())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	if q.Format == formatCSV {
		h.writeCSV(w, r, exporter.MarketCapTable(ranking.MarketCaps, ranking.Provenance))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ranking,
		"count":  len(ranking.MarketCaps),
	})
}

// GetReturns handles GET /api/market/returns
func (h *MarketHandler) GetReturns(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r, formatJSON, formatCSV)
	if !ok {
		return
	}
	if q.Window == "" {
		q.Window = marketmetrics.Window1Y.String()
	}
	window, err := marketmetrics.ParseWindow(q.Window)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("window", q.Window, "must be one of: 1y, 3y"))
		return
	}

	// top sizes the returns table on this route
	opts := q.buildOptions()
	if q.Top > 0 {
		opts.ReturnsTop = q.Top
	}

	ranking, err := h.service.Returns(r.Context(), window, opts)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	if q.Format == formatCSV {
		name := exporter.TableReturns1Y
		if window == marketmetrics.Window3Y {
			name = exporter.TableReturns3Y
		}
		h.writeCSV(w, r, exporter.ReturnsTable(name, ranking.Returns, ranking.Provenance))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ranking,
		"count":  len(ranking.Returns),
	})
}

// GetVolatility handles GET /api/market/volatility
func (h *MarketHandler) GetVolatility(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r, formatJSON, formatCSV)
	if !ok {
		return
	}

	ranking, err := h.service.Volatility(r.Context(), q.buildOptions())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	if q.Format == formatCSV {
		h.writeCSV(w, r, exporter.VolatilityTable(ranking.Volatility, ranking.Provenance))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ranking,
		"count":  len(ranking.Volatility),
	})
}

// GetDashboard handles GET /api/market/dashboard
func (h *MarketHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r, formatJSON, formatXLSX)
	if !ok {
		return
	}

	dash, err := h.service.Build(r.Context(), q.buildOptions())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	if q.Format == formatXLSX {
		w.Header().Set("Content-Type", contentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "dashboard_"+dash.ID.String()+".xlsx"))
		if err := exporter.WriteXLSX(w, exporter.InfoFor(dash), exporter.DashboardTables(dash)); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to write dashboard workbook",
				slog.String("error", err.Error()))
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dash,
		"count":  dash.Entities,
	})
}

// GetEntity handles GET /api/market/entities/{name}
func (h *MarketHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	name, detail, ok := h.loadEntity(w, r)
	if !ok {
		return
	}

	h.logger.DebugContext(r.Context(), "Entity detail served", slog.String("entity", name))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   detail,
	})
}

// GetEntityCaps handles GET /api/market/entities/{name}/caps
func (h *MarketHandler) GetEntityCaps(w http.ResponseWriter, r *http.Request) {
	name, detail, ok := h.loadEntity(w, r)
	if !ok {
		return
	}
	if detail.Latest == nil {
		h.errorHandler.HandleError(w, r, apierrors.MetricUnavailable(name, "market cap"))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"entity":     detail.Entity,
			"ticker":     detail.Ticker,
			"provenance": detail.Provenance,
			"period":     detail.Period,
			"latest":     detail.Latest,
			"series":     detail.CapSeries,
		},
		"count": len(detail.CapSeries),
	})
}

func (h *MarketHandler) loadEntity(w http.ResponseWriter, r *http.Request) (string, *services.EntityDetail, bool) {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSpace(name)
	if name == "" {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("name", name, "entity name is required"))
		return "", nil, false
	}

	q, ok := h.parseQuery(w, r, formatJSON)
	if !ok {
		return "", nil, false
	}

	detail, err := h.service.Entity(r.Context(), name, marketmetrics.Period(strings.ToLower(q.Period)))
	if err != nil {
		h.handleServiceError(w, r, err, name)
		return "", nil, false
	}
	return name, detail, true
}

// parseQuery decodes and validates the query string. Formats outside
// allowed are rejected for the route even when valid elsewhere.
func (h *MarketHandler) parseQuery(w http.ResponseWriter, r *http.Request, allowed ...string) (tableQuery, bool) {
	values := r.URL.Query()
	q := tableQuery{
		Period:   strings.TrimSpace(values.Get("period")),
		Window:   strings.ToLower(strings.TrimSpace(values.Get("window"))),
		Format:   strings.ToLower(strings.TrimSpace(values.Get("format"))),
		Entities: strings.TrimSpace(values.Get("entities")),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"top", &q.Top},
		{"returns_top", &q.ReturnsTop},
	}
	for _, p := range ints {
		raw := strings.TrimSpace(values.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter(p.name, raw, "must be an integer"))
			return q, false
		}
		if n <= 0 {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter(p.name, raw, "must be positive"))
			return q, false
		}
		*p.dst = n
	}

	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return q, false
	}

	if q.Format == "" {
		q.Format = formatJSON
	}
	for _, f := range allowed {
		if q.Format == f {
			return q, true
		}
	}
	h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("format", q.Format,
		"must be one of: "+strings.Join(allowed, ", ")))
	return q, false
}

func (h *MarketHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var unknown *services.UnknownEntitiesError
	switch {
	case errors.As(err, &unknown):
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("entities", strings.Join(unknown.Keys, ","),
			"unknown entity: "+strings.Join(unknown.Keys, ", ")))
	case errors.Is(err, services.ErrNoEntities):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoDataLoaded)
	case errors.Is(err, services.ErrEntityNotFound):
		h.errorHandler.HandleError(w, r, apierrors.EntityNotFound(entity))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func (h *MarketHandler) writeCSV(w http.ResponseWriter, r *http.Request, table exporter.Table) {
	w.Header().Set("Content-Type", contentTypeCSV)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ToLower(table.Name)+".csv"))
	if err := exporter.WriteTable(w, table, true); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write CSV table",
			slog.String("table", table.Name),
			slog.String("error", err.Error()))
	}
}
