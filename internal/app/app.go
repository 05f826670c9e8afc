package app

import (
	"context"
	"errors"
	"io"

	"multibagger/alerts"
	"multibagger/analysis"
	"multibagger/config"
	"multibagger/history"
	"multibagger/internal/events"
	"multibagger/internal/settings"
	"multibagger/models"
	"multibagger/observability"
	"multibagger/repository"
	"multibagger/schedule"
	"multibagger/services"
	"multibagger/viewmodel"
)

// ErrNoPreferences is returned when preference operations are used without a store
var ErrNoPreferences = errors.New("preferences store not configured")

// Deps are the collaborators a Dashboard is built from
type Deps struct {
	Agent       services.AgentInvoker
	Scheduler   services.ScheduleService
	Store       repository.KeyValueStore
	Publisher   events.Publisher
	Preferences *settings.Store
	Breakers    *services.CircuitBreakerRegistry
}

// Stats are the headline numbers of the dashboard
type Stats struct {
	TotalScreened          int     `json:"total_screened"`
	ActiveRecommendations  int     `json:"active_recommendations"`
	AnalysesCompleted      int     `json:"analyses_completed"`
	AverageRecommendations float64 `json:"average_recommendations"`
	LastAnalysisTime       string  `json:"last_analysis_time,omitempty"`
	AnalysisDate           string  `json:"analysis_date,omitempty"`
}

// State is everything the presentation layer renders
type State struct {
	Analysis        analysis.Snapshot     `json:"analysis"`
	Recommendations []viewmodel.Item      `json:"recommendations"`
	Filter          viewmodel.Filter      `json:"filter"`
	Selected        []string              `json:"selected"`
	Alerts          alerts.Snapshot       `json:"alerts"`
	Schedule        schedule.Snapshot     `json:"schedule"`
	History         []models.HistoryEntry `json:"history"`
	Stats           Stats                 `json:"stats"`
	ActiveAgent     string                `json:"active_agent,omitempty"`
	Preferences     *settings.Preferences `json:"preferences,omitempty"`
}

// Dashboard composes the screening components. It is the only place that
// combines their state.
type Dashboard struct {
	cfg      *config.Config
	analysis *analysis.Orchestrator
	view     *viewmodel.Model
	alerts   *alerts.Dispatcher
	schedule *schedule.Manager
	history  *history.Store
	prefs    *settings.Store
	breakers *services.CircuitBreakerRegistry
	closers  []io.Closer
}

// New builds a Dashboard from deps. The store and publisher are closed by
// Shutdown.
func New(cfg *config.Config, deps Deps) *Dashboard {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	store := deps.Store
	if store == nil {
		store = repository.NewMemoryStore()
	}

	hist := history.NewStore(store, cfg.History.StorageKey, cfg.History.Capacity)

	return &Dashboard{
		cfg:      cfg,
		history:  hist,
		analysis: analysis.New(deps.Agent, hist, analysis.SettingsFromConfig(cfg), analysis.WithPublisher(publisher)),
		view:     viewmodel.New(),
		alerts:   alerts.New(deps.Agent, cfg.Agent.AlertID, alerts.WithPublisher(publisher)),
		schedule: schedule.New(deps.Scheduler, cfg.Schedule.ScheduleID, cfg.Schedule.LogLimit),
		prefs:    deps.Preferences,
		breakers: deps.Breakers,
		closers:  []io.Closer{store, publisher},
	}
}

// Startup loads the persisted history
func (d *Dashboard) Startup(ctx context.Context) {
	d.history.Load(ctx)
}

// Shutdown waits for an in-flight analysis and releases storage and publishing
func (d *Dashboard) Shutdown() error {
	d.analysis.Wait()
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dashboard) Analysis() *analysis.Orchestrator { return d.analysis }
func (d *Dashboard) View() *viewmodel.Model           { return d.view }
func (d *Dashboard) Alerts() *alerts.Dispatcher       { return d.alerts }
func (d *Dashboard) Schedule() *schedule.Manager      { return d.schedule }
func (d *Dashboard) History() *history.Store          { return d.history }

// StartAnalysis begins a background run with c
func (d *Dashboard) StartAnalysis(ctx context.Context, c analysis.Criteria) error {
	return d.analysis.Start(ctx, c)
}

// RunAnalysis performs a run with c and returns when it is over
func (d *Dashboard) RunAnalysis(ctx context.Context, c analysis.Criteria) error {
	return d.analysis.Run(ctx, c)
}

// Recommendations derives the visible list under the current filter
func (d *Dashboard) Recommendations() []viewmodel.Item {
	return d.view.View(d.analysis.Recommendations())
}

// SendAlert forwards the selected recommendations, in display data order
func (d *Dashboard) SendAlert(ctx context.Context) (*models.AlertDelivery, error) {
	selected := d.view.SelectedRecommendations(d.analysis.Recommendations())
	return d.alerts.Send(ctx, selected)
}

// TestConnection checks the messaging channel using the stored team and
// channel ids
func (d *Dashboard) TestConnection(ctx context.Context) (string, error) {
	var prefs settings.Preferences
	if d.prefs != nil {
		prefs = d.prefs.Get()
	}
	return d.alerts.TestConnection(ctx, prefs.TeamID, prefs.ChannelID)
}

// Preferences returns the stored preferences
func (d *Dashboard) Preferences() (settings.Preferences, error) {
	if d.prefs == nil {
		return settings.Preferences{}, ErrNoPreferences
	}
	return d.prefs.Get(), nil
}

// UpdatePreferences validates and stores prefs
func (d *Dashboard) UpdatePreferences(prefs settings.Preferences) error {
	if d.prefs == nil {
		return ErrNoPreferences
	}
	return d.prefs.Update(prefs)
}

// Breakers reports the circuit breaker states of the remote collaborators
func (d *Dashboard) Breakers() map[string]services.CircuitBreakerStatus {
	if d.breakers == nil {
		return map[string]services.CircuitBreakerStatus{}
	}
	return d.breakers.Status()
}

// Stats computes the headline numbers
func (d *Dashboard) Stats() Stats {
	snap := d.analysis.Snapshot()
	entries := d.history.Entries()
	return stats(snap, entries)
}

func stats(snap analysis.Snapshot, entries []models.HistoryEntry) Stats {
	s := Stats{
		AnalysesCompleted: len(entries),
		LastAnalysisTime:  snap.LastAnalysisTime,
	}
	if snap.Result != nil {
		s.TotalScreened = snap.Result.TotalCandidatesScreened
		s.ActiveRecommendations = len(snap.Result.Recommendations)
		s.AnalysisDate = snap.Result.AnalysisDate
	}
	if len(entries) > 0 {
		total := 0
		for _, e := range entries {
			total += e.RecommendationsCount
		}
		s.AverageRecommendations = float64(total) / float64(len(entries))
	}
	return s
}

// ActiveAgent returns the agent currently being waited on, or ""
func (d *Dashboard) ActiveAgent() string {
	if id := d.analysis.ActiveAgent(); id != "" {
		return id
	}
	return d.alerts.ActiveAgent()
}

// State returns a full snapshot for rendering
func (d *Dashboard) State() State {
	snap := d.analysis.Snapshot()
	entries := d.history.Entries()

	st := State{
		Analysis:        snap,
		Recommendations: d.view.View(d.analysis.Recommendations()),
		Filter:          d.view.Filter(),
		Selected:        d.view.Selected(),
		Alerts:          d.alerts.Snapshot(),
		Schedule:        d.schedule.Snapshot(),
		History:         entries,
		Stats:           stats(snap, entries),
		ActiveAgent:     d.ActiveAgent(),
	}
	if d.prefs != nil {
		p := d.prefs.Get()
		st.Preferences = &p
	}
	return st
}

// logStartup records the effective wiring
func logStartup(cfg *config.Config, backend string, kafka bool) {
	observability.Info("dashboard wired",
		"agent_url", cfg.Agent.BaseURL,
		"scheduler_url", cfg.Schedule.BaseURL,
		"history_backend", backend,
		"history_capacity", cfg.History.Capacity,
		"kafka", kafka)
}
