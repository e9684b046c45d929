package http

import (
	"net/http"

	apierrors "capboard/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter     http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the Prometheus handler. A nil handler means
// metrics export is disabled and scrapes get 503.
func NewMetricsHandler(exporter http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusServiceUnavailable,
			apierrors.CodeServiceUnavailable, "Metrics export is disabled"))
		return
	}
	h.exporter.ServeHTTP(w, r)
}
