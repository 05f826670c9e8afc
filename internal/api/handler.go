package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"multibagger/alerts"
	"multibagger/analysis"
	"multibagger/config"
	"multibagger/internal/app"
	"multibagger/internal/settings"
	"multibagger/models"
	"multibagger/viewmodel"

	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP API requests
type Handler struct {
	dash *app.Dashboard
	cfg  *config.Config
}

// NewHandler creates a new Handler
func NewHandler(dash *app.Dashboard, cfg *config.Config) *Handler {
	return &Handler{dash: dash, cfg: cfg}
}

// HandleIndex serves the status page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage(h.dash.State()).Render(r.Context(), w); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleHealth reports the circuit breaker states. Any open breaker degrades
// the service.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	breakers := h.dash.Breakers()
	status := "ok"
	for _, cb := range breakers {
		if cb.State == "open" {
			status = "degraded"
			break
		}
	}

	h.jsonResponse(w, map[string]any{
		"status":           status,
		"history_backend":  h.cfg.History.Backend,
		"history_entries":  h.dash.History().Len(),
		"circuit_breakers": breakers,
	})
}

// HandleState returns the full dashboard snapshot
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.dash.State())
}

// AnalysisRequest is the body of POST /api/analysis
type AnalysisRequest struct {
	Sectors       []string              `json:"sectors"`
	MarketCap     *models.MarketCapTier `json:"market_cap,omitempty"`
	RiskTolerance string                `json:"risk_tolerance,omitempty"`
}

// criteria converts the request, applying the defaults for omitted fields
func (req AnalysisRequest) criteria() (analysis.Criteria, error) {
	c := analysis.DefaultCriteria()
	for _, s := range req.Sectors {
		if !models.IsSector(s) {
			return c, errors.New("unknown sector: " + s)
		}
		if !slices.Contains(c.Sectors, s) {
			c.Sectors = append(c.Sectors, s)
		}
	}
	if req.MarketCap != nil {
		if !req.MarketCap.Valid() {
			return c, errors.New("market_cap must be between 0 and 3")
		}
		c.MarketCap = *req.MarketCap
	}
	if req.RiskTolerance != "" {
		if !models.IsRiskTolerance(req.RiskTolerance) {
			return c, errors.New("risk_tolerance must be one of " + strings.Join(models.RiskTolerances, ", "))
		}
		c.RiskTolerance = req.RiskTolerance
	}
	return c, nil
}

// HandleStartAnalysis starts a background screening run
func (h *Handler) HandleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := req.criteria()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dash.StartAnalysis(r.Context(), c); err != nil {
		if errors.Is(err, analysis.ErrBusy) {
			h.jsonError(w, "Analysis already in progress", http.StatusConflict)
			return
		}
		h.jsonError(w, models.UserMessage(err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(h.dash.Analysis().Snapshot())
}

// HandleLoadSample installs the sample result when nothing is displayed
func (h *Handler) HandleLoadSample(w http.ResponseWriter, r *http.Request) {
	loaded := h.dash.Analysis().LoadSample()
	h.jsonResponse(w, map[string]bool{"loaded": loaded})
}

// HandleClearSample removes the sample result if it is displayed
func (h *Handler) HandleClearSample(w http.ResponseWriter, r *http.Request) {
	cleared := h.dash.Analysis().ClearSample()
	h.jsonResponse(w, map[string]bool{"cleared": cleared})
}

// HandleGetRecommendations applies the query's filter and returns the
// derived list. Omitted parameters keep their current values.
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := h.dash.View().Filter()
	if q.Has("search") {
		f.Search = q.Get("search")
	}
	if q.Has("sort") {
		sort := q.Get("sort")
		if !slices.Contains(viewmodel.SortKeys, sort) {
			h.jsonError(w, "sort must be one of "+strings.Join(viewmodel.SortKeys, ", "), http.StatusBadRequest)
			return
		}
		f.Sort = sort
	}
	if q.Has("risk") {
		f.Risk = q.Get("risk")
	}
	h.dash.View().SetFilter(f)

	items := h.dash.Recommendations()
	h.jsonResponse(w, map[string]any{
		"filter":          h.dash.View().Filter(),
		"recommendations": items,
		"count":           len(items),
	})
}

// ticker resolves the {ticker} path parameter against the displayed result
func (h *Handler) ticker(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker := chi.URLParam(r, "ticker")
	recs := h.dash.Analysis().Recommendations()
	if !slices.ContainsFunc(recs, func(rec models.Recommendation) bool { return rec.Ticker == ticker }) {
		h.jsonError(w, "Recommendation not found", http.StatusNotFound)
		return "", false
	}
	return ticker, true
}

// HandleToggleExpand toggles the detail view of a recommendation
func (h *Handler) HandleToggleExpand(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.ticker(w, r)
	if !ok {
		return
	}
	expanded := h.dash.View().ToggleExpand(ticker)
	h.jsonResponse(w, map[string]any{"ticker": ticker, "expanded": expanded})
}

// HandleToggleSelect toggles whether a recommendation is part of the alert selection
func (h *Handler) HandleToggleSelect(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.ticker(w, r)
	if !ok {
		return
	}
	selected := h.dash.View().ToggleSelect(ticker)
	h.jsonResponse(w, map[string]any{"ticker": ticker, "selected": selected})
}

// HandleClearSelection empties the alert selection
func (h *Handler) HandleClearSelection(w http.ResponseWriter, r *http.Request) {
	h.dash.View().ClearSelection()
	h.jsonResponse(w, map[string]any{"selected": []string{}})
}

// HandleSendAlert forwards the selection to the alert agent
func (h *Handler) HandleSendAlert(w http.ResponseWriter, r *http.Request) {
	delivery, err := h.dash.SendAlert(r.Context())
	if err != nil {
		if errors.Is(err, alerts.ErrBusy) {
			h.jsonError(w, "Alert dispatch already in progress", http.StatusConflict)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, map[string]any{
		"sent":     delivery != nil,
		"delivery": delivery,
	})
}

// HandleTestConnection checks the messaging channel with the stored ids
func (h *Handler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	status, err := h.dash.TestConnection(r.Context())
	if err != nil {
		if errors.Is(err, alerts.ErrBusy) {
			h.jsonError(w, "Alert dispatch already in progress", http.StatusConflict)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, StatusResponse{Status: status})
}

// HandleGetHistory returns the history log, newest first
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.dash.History().Entries()
	h.jsonResponse(w, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleGetSchedule returns the local schedule mirror
func (h *Handler) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.dash.Schedule().Snapshot())
}

// HandleRefreshSchedule reloads the schedule from the scheduler. The previous
// mirror survives a failed refresh.
func (h *Handler) HandleRefreshSchedule(w http.ResponseWriter, r *http.Request) {
	if _, err := h.dash.Schedule().Refresh(r.Context()); err != nil {
		h.jsonError(w, models.MsgNetworkError, http.StatusBadGateway)
		return
	}
	h.jsonResponse(w, h.dash.Schedule().Snapshot())
}

// HandleToggleSchedule pauses an active schedule or resumes a paused one
func (h *Handler) HandleToggleSchedule(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.dash.Schedule().Toggle(r.Context())
	h.scheduleResult(w, msg, ok)
}

// HandleTriggerSchedule runs the schedule immediately
func (h *Handler) HandleTriggerSchedule(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.dash.Schedule().TriggerNow(r.Context())
	h.scheduleResult(w, msg, ok)
}

func (h *Handler) scheduleResult(w http.ResponseWriter, msg string, ok bool) {
	if !ok {
		h.jsonError(w, msg, http.StatusBadGateway)
		return
	}
	h.jsonResponse(w, map[string]any{
		"message":  msg,
		"schedule": h.dash.Schedule().Snapshot(),
	})
}

// HandleGetScheduleLogs returns the most recent execution logs
func (h *Handler) HandleGetScheduleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.dash.Schedule().LoadLogs(r.Context())
	if err != nil {
		h.jsonError(w, models.MsgNetworkError, http.StatusBadGateway)
		return
	}
	h.jsonResponse(w, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}

// HandleGetSettings returns the stored preferences
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.dash.Preferences()
	if err != nil {
		h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		return
	}
	h.jsonResponse(w, prefs)
}

// HandleUpdateSettings validates and stores new preferences
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var prefs settings.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		h.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.dash.UpdatePreferences(prefs); err != nil {
		switch {
		case errors.Is(err, app.ErrNoPreferences):
			h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		case errors.Is(err, settings.ErrInvalidPreferences):
			h.jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.jsonResponse(w, StatusResponse{Status: "saved"})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// StatusResponse represents a status response
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
