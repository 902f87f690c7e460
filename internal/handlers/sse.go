package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"retailense/internal/interaction"
	"retailense/internal/models"
	"retailense/internal/observability"
	"retailense/internal/presentation"
	"retailense/internal/services"
)

var cardsTemplate = template.Must(template.New("cards").Parse(`
<div id="summary-cards" class="cards">
{{range .}}<div id="{{.ID}}" class="card card-{{.Tone}}">
<span class="card-title">{{.Title}}</span>
<span class="card-value">{{.Value}}</span>
</div>
{{end}}</div>`))

var filterErrorTemplate = template.Must(template.New("filterError").Parse(
	`<div id="filter-error" class="filter-error">{{.}}</div>`))

const clearFilterError = `<div id="filter-error" class="filter-error"></div>`

// dashboardSignals mirrors the client-side signal store.
type dashboardSignals struct {
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Countries []string `json:"countries"`
	TopN      int      `json:"topN"`
	Selection any      `json:"selection,omitempty"`
}

func (s dashboardSignals) params() models.FilterParams {
	return models.FilterParams{
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Countries: s.Countries,
		TopN:      s.TopN,
	}
}

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderCards(cards []presentation.Card) (string, error) {
	var buf strings.Builder
	err := cardsTemplate.Execute(&buf, cards)
	return buf.String(), err
}

func (h *SSEHandlers) patchFilterError(sse *datastar.ServerSentEventGenerator, message string) {
	var buf strings.Builder
	if err := filterErrorTemplate.Execute(&buf, message); err != nil {
		h.logger.Error("render filter error", "error", err)
		return
	}
	sse.PatchElements(buf.String())
}

// refresh recomputes every view for params and patches the chart signals
// and the summary cards.
func (h *SSEHandlers) refresh(sse *datastar.ServerSentEventGenerator, r *http.Request, params models.FilterParams, selected string) {
	params = h.dashboard.Defaults(params)

	report, err := h.dashboard.Report(r.Context(), params)
	if err != nil {
		observability.FromContext(r.Context(), h.logger).Warn("dashboard refresh rejected", "error", err)
		h.patchFilterError(sse, err.Error())
		return
	}

	view := presentation.Render(report, selected)
	signals, err := json.Marshal(map[string]any{
		"startDate":       params.StartDate,
		"endDate":         params.EndDate,
		"countries":       params.Countries,
		"topN":            params.TopN,
		"monthlyData":     view.MonthlyRevenue,
		"waterfallData":   view.Waterfall,
		"compositionData": view.RevenueComposition,
		"productsData":    view.TopProducts,
		"countryData":     view.CountryShares,
		"otherCountries":  view.OtherCountries,
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	html, err := h.renderCards(view.Cards)
	if err != nil {
		h.logger.Error("render summary cards", "error", err)
		return
	}
	sse.PatchElements(html)
	sse.PatchElements(clearFilterError)
}

func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read dashboard signals", "error", err)
	}

	sse := datastar.NewSSE(w, r)
	h.refresh(sse, r, signals.params(), "")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleSelect resolves a country chart click, patches the new country
// filter and then refreshes every view with it.
func (h *SSEHandlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read selection signals", "error", err)
	}

	sse := datastar.NewSSE(w, r)

	params := h.dashboard.Defaults(signals.params())
	resolution, err := h.dashboard.Resolve(r.Context(), params, interaction.ParseSignal(signals.Selection))
	if err != nil {
		observability.FromContext(r.Context(), h.logger).Warn("selection rejected", "error", err)
		h.patchFilterError(sse, err.Error())
		return
	}

	selected, err := json.Marshal(map[string]any{
		"countries":       resolution.Countries,
		"selectedCountry": resolution.SelectedLabel,
		"otherCountries":  resolution.OtherCountries,
	})
	if err != nil {
		h.logger.Error("marshal selection signals", "error", err)
		return
	}
	sse.PatchSignals(selected)

	params.Countries = resolution.Countries
	h.refresh(sse, r, params, resolution.SelectedLabel)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
