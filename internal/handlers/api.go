package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"retailense/internal/analytics"
	"retailense/internal/errors"
	"retailense/internal/interaction"
	"retailense/internal/models"
	"retailense/internal/observability"
	"retailense/internal/presentation"
	"retailense/internal/services"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	errors.WriteError(w, observability.FromContext(ctx, h.logger), err, observability.GetRequestID(ctx))
}

// report resolves the query into a report. It writes the error response
// itself and returns nil on failure.
func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) *analytics.Report {
	params, err := parseFilterQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil
	}

	report, err := h.dashboard.Report(r.Context(), h.dashboard.Defaults(params))
	if err != nil {
		h.writeError(w, r, err)
		return nil
	}
	return report
}

func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) *presentation.View {
	report := h.report(w, r)
	if report == nil {
		return nil
	}
	view := presentation.Render(report, r.URL.Query().Get("selected"))
	return &view
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Options(), cacheHeaders)
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	if report := h.report(w, r); report != nil {
		errors.WriteSuccessWithHeaders(w, report, cacheHeaders)
	}
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	if view := h.view(w, r); view != nil {
		errors.WriteSuccessWithHeaders(w, view.MonthlyRevenue, cacheHeaders)
	}
}

func (h *APIHandlers) HandleWaterfall(w http.ResponseWriter, r *http.Request) {
	if view := h.view(w, r); view != nil {
		errors.WriteSuccessWithHeaders(w, view.Waterfall, cacheHeaders)
	}
}

func (h *APIHandlers) HandleRevenueComposition(w http.ResponseWriter, r *http.Request) {
	if view := h.view(w, r); view != nil {
		errors.WriteSuccessWithHeaders(w, view.RevenueComposition, cacheHeaders)
	}
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if view := h.view(w, r); view != nil {
		errors.WriteSuccessWithHeaders(w, view.TopProducts, cacheHeaders)
	}
}

func (h *APIHandlers) HandleCountryShares(w http.ResponseWriter, r *http.Request) {
	if view := h.view(w, r); view != nil {
		errors.WriteSuccessWithHeaders(w, map[string]any{
			"slices":          view.CountryShares,
			"other_countries": view.OtherCountries,
		}, cacheHeaders)
	}
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	report := h.report(w, r)
	if report == nil {
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"summary": report.Summary,
		"cards":   presentation.Cards(report.Summary),
	}, cacheHeaders)
}

type selectionRequest struct {
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Countries []string        `json:"countries"`
	Signal    json.RawMessage `json:"signal"`
}

func (h *APIHandlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeError(w, r, errors.BadRequestWrap(err, "invalid selection request body"))
		return
	}

	params := h.dashboard.Defaults(models.FilterParams{
		StartDate: req.Start,
		EndDate:   req.End,
		Countries: req.Countries,
	})

	resolution, err := h.dashboard.Resolve(r.Context(), params, interaction.DecodeSignal(req.Signal))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccess(w, resolution)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.dashboard.RecordCount() == 0 {
		h.writeError(w, r, errors.ServiceUnavailable("no transactions loaded"))
		return
	}

	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"records":   h.dashboard.RecordCount(),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.dashboard.Stats()

	errors.WriteSuccess(w, stats)
}
