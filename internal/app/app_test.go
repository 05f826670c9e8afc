package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multibagger/analysis"
	"multibagger/config"
	"multibagger/internal/settings"
	"multibagger/models"
	"multibagger/repository"
	"multibagger/services"
	"multibagger/viewmodel"
)

// routingAgent answers per agent id the way the coordinator and alert agents do
type routingAgent struct {
	mu    sync.Mutex
	tasks map[string][]string
}

func newRoutingAgent() *routingAgent {
	return &routingAgent{tasks: map[string][]string{}}
}

func (a *routingAgent) Invoke(_ context.Context, task, agentID string) (*services.AgentResponse, error) {
	a.mu.Lock()
	a.tasks[agentID] = append(a.tasks[agentID], task)
	a.mu.Unlock()

	var result any
	switch agentID {
	case "coordinator-agent":
		result = map[string]any{
			"recommendations": []any{
				map[string]any{"rank": 2.0, "ticker": "DIXON", "company_name": "Dixon Technologies", "composite_score": 8.8},
				map[string]any{"rank": 1.0, "ticker": "TATAELXSI", "company_name": "Tata Elxsi", "composite_score": 9.1},
				map[string]any{"rank": 3.0, "ticker": "LAURUSLABS", "company_name": "Laurus Labs", "composite_score": 7.9},
			},
			"total_candidates_screened": 1847.0,
			"analysis_date":             "2025-02-15",
		}
	default:
		result = map[string]any{"delivery_status": "delivered", "channel_name": "Stock Alerts"}
	}
	return &services.AgentResponse{
		Success:  true,
		Response: &services.AgentPayload{Status: services.StatusSuccess, Result: result},
	}, nil
}

func (a *routingAgent) sent(agentID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.tasks[agentID]...)
}

type stubScheduler struct{}

func (stubScheduler) Get(context.Context, string) (*models.Schedule, error) {
	return &models.Schedule{ID: "weekly-screen", IsActive: true, CronExpression: "0 9 * * 1"}, nil
}
func (stubScheduler) Pause(context.Context, string) error      { return nil }
func (stubScheduler) Resume(context.Context, string) error     { return nil }
func (stubScheduler) TriggerNow(context.Context, string) error { return nil }
func (stubScheduler) Logs(context.Context, string, int) ([]models.ExecutionLog, error) {
	return []models.ExecutionLog{}, nil
}

func newTestDashboard(t *testing.T, deps Deps) (*Dashboard, *routingAgent) {
	t.Helper()
	agent := newRoutingAgent()
	if deps.Agent == nil {
		deps.Agent = agent
	}
	if deps.Scheduler == nil {
		deps.Scheduler = stubScheduler{}
	}
	cfg := config.NewTestConfig()
	cfg.Analysis.ProgressTickMillis = 1
	return New(cfg, deps), agent
}

func screening(sectors ...string) analysis.Criteria {
	c := analysis.DefaultCriteria()
	c.Sectors = sectors
	return c
}

func TestStartupLoadsHistory(t *testing.T) {
	store := repository.NewMemoryStore()
	persisted, _ := json.Marshal([]models.HistoryEntry{{ID: "old", RecommendationsCount: 4}})
	require.NoError(t, store.Set(context.Background(), "multibagger_history", persisted))

	d, _ := newTestDashboard(t, Deps{Store: store})
	d.Startup(context.Background())

	st := d.State()
	require.Len(t, st.History, 1)
	assert.Equal(t, "old", st.History[0].ID)
	assert.Equal(t, 1, st.Stats.AnalysesCompleted)
}

func TestRunAnalysisAndDeriveView(t *testing.T) {
	d, _ := newTestDashboard(t, Deps{})
	require.NoError(t, d.RunAnalysis(context.Background(), screening("IT Services")))

	items := d.Recommendations()
	require.Len(t, items, 3)
	assert.Equal(t, "TATAELXSI", items[0].Ticker)
	assert.Equal(t, "DIXON", items[1].Ticker)

	d.View().SetFilter(viewmodel.Filter{Sort: viewmodel.SortRank, Search: "la"})
	items = d.Recommendations()
	require.Len(t, items, 1)
	assert.Equal(t, "LAURUSLABS", items[0].Ticker)

	st := d.State()
	assert.Equal(t, 1847, st.Stats.TotalScreened)
	assert.Equal(t, 3, st.Stats.ActiveRecommendations)
	assert.Equal(t, 1, st.Stats.AnalysesCompleted)
	assert.Equal(t, 3.0, st.Stats.AverageRecommendations)
	assert.Equal(t, "2025-02-15", st.Stats.AnalysisDate)
	assert.Empty(t, st.ActiveAgent)
}

func TestSendAlertUsesSelectionInDataOrder(t *testing.T) {
	d, agent := newTestDashboard(t, Deps{})
	require.NoError(t, d.RunAnalysis(context.Background(), screening("Pharma")))

	d.View().SetSelected("LAURUSLABS", true)
	d.View().SetSelected("DIXON", true)

	delivery, err := d.SendAlert(context.Background())
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, "Stock Alerts", delivery.ChannelName)
	assert.Equal(t, 2, delivery.StocksIncluded)

	tasks := agent.sent("alert-agent")
	require.Len(t, tasks, 1)
	assert.Less(t, strings.Index(tasks[0], "DIXON"), strings.Index(tasks[0], "LAURUSLABS"))
	assert.NotContains(t, tasks[0], "TATAELXSI")
}

func TestSendAlertWithoutSelection(t *testing.T) {
	d, agent := newTestDashboard(t, Deps{})
	require.NoError(t, d.RunAnalysis(context.Background(), screening("Pharma")))

	delivery, err := d.SendAlert(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, delivery)
	assert.Empty(t, agent.sent("alert-agent"))
}

func TestPreferencesAndConnectionTest(t *testing.T) {
	d, _ := newTestDashboard(t, Deps{})
	_, err := d.Preferences()
	assert.ErrorIs(t, err, ErrNoPreferences)
	assert.ErrorIs(t, d.UpdatePreferences(settings.DefaultPreferences()), ErrNoPreferences)

	prefs, err := settings.NewStore(t.TempDir(), "test")
	require.NoError(t, err)
	d, agent := newTestDashboard(t, Deps{Preferences: prefs})

	p := settings.DefaultPreferences()
	p.TeamID, p.ChannelID = "team-7", "19:general@thread.tacv2"
	require.NoError(t, d.UpdatePreferences(p))

	status, err := d.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionSuccess, status)
	tasks := agent.sent("alert-agent")
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "Team ID: team-7. Channel ID: 19:general@thread.tacv2.")

	st := d.State()
	require.NotNil(t, st.Preferences)
	assert.Equal(t, "team-7", st.Preferences.TeamID)
}

func TestStats(t *testing.T) {
	snap := analysis.Snapshot{LastAnalysisTime: "x"}
	entries := []models.HistoryEntry{{RecommendationsCount: 5}, {RecommendationsCount: 2}}

	s := stats(snap, entries)
	assert.Equal(t, 2, s.AnalysesCompleted)
	assert.Equal(t, 3.5, s.AverageRecommendations)
	assert.Zero(t, s.TotalScreened)

	assert.Zero(t, stats(snap, nil).AverageRecommendations)
}

func TestBreakersWithoutRegistry(t *testing.T) {
	d, _ := newTestDashboard(t, Deps{})
	assert.Empty(t, d.Breakers())
}

func TestWireWithFileBackend(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.History.DataDir = t.TempDir()
	cfg.Settings.DataDir = t.TempDir()

	d, err := Wire(context.Background(), cfg)
	require.NoError(t, err)

	assert.Empty(t, d.State().History)
	assert.NotNil(t, d.Breakers())
	assert.NoError(t, d.Shutdown())
}
