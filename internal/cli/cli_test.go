package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multibagger/config"
	"multibagger/internal/app"
	"multibagger/internal/settings"
	"multibagger/models"
	"multibagger/repository"
	"multibagger/services"
)

type scriptedAgent struct {
	mu     sync.Mutex
	fail   bool
	tasks  map[string][]string
	result map[string]any
}

func newScriptedAgent() *scriptedAgent {
	return &scriptedAgent{
		tasks: map[string][]string{},
		result: map[string]any{
			"recommendations": []any{
				map[string]any{"rank": 1.0, "ticker": "PERSISTENT", "company_name": "Persistent Systems", "composite_score": 8.7, "buy_rationale": "Deal wins accelerating"},
				map[string]any{"rank": 2.0, "ticker": "SOLARINDS", "company_name": "Solar Industries", "composite_score": 8.1},
			},
			"total_candidates_screened": 640.0,
			"market_outlook":            "Constructive",
		},
	}
}

func (a *scriptedAgent) Invoke(_ context.Context, task, agentID string) (*services.AgentResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks[agentID] = append(a.tasks[agentID], task)

	if a.fail {
		return &services.AgentResponse{
			Success:  true,
			Response: &services.AgentPayload{Status: "error", Message: "Coordinator overloaded"},
		}, nil
	}
	result := any(a.result)
	if agentID == "alert-agent" {
		result = map[string]any{"delivery_status": "delivered", "channel_name": "Stock Alerts"}
	}
	return &services.AgentResponse{
		Success:  true,
		Response: &services.AgentPayload{Status: services.StatusSuccess, Result: result},
	}, nil
}

func (a *scriptedAgent) sent(agentID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.tasks[agentID]...)
}

type scriptedScheduler struct {
	mu     sync.Mutex
	active bool
	paused int
}

func (s *scriptedScheduler) Get(context.Context, string) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.Schedule{ID: "weekly-screen", IsActive: s.active, CronExpression: "0 9 * * 1", Timezone: "Asia/Kolkata"}, nil
}

func (s *scriptedScheduler) Pause(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.paused++
	return nil
}

func (s *scriptedScheduler) Resume(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	return nil
}

func (s *scriptedScheduler) TriggerNow(context.Context, string) error { return nil }

func (s *scriptedScheduler) Logs(context.Context, string, int) ([]models.ExecutionLog, error) {
	return []models.ExecutionLog{
		{ExecutedAt: "2025-02-10T09:00:00Z", Success: false, Attempt: 2, MaxAttempts: 3, ErrorMessage: "agent timeout"},
	}, nil
}

type stubPrompter struct {
	asked []string
}

func (p *stubPrompter) Sectors() ([]string, error) {
	p.asked = append(p.asked, "sectors")
	return []string{"Defence", "Chemicals"}, nil
}

func (p *stubPrompter) MarketCap() (models.MarketCapTier, error) {
	p.asked = append(p.asked, "market_cap")
	return models.MarketCapMicro, nil
}

func (p *stubPrompter) RiskTolerance() (string, error) {
	p.asked = append(p.asked, "risk")
	return models.RiskAggressive, nil
}

// fixture shares collaborators across commands the way a real process would
// share its backing stores
type fixture struct {
	agent     *scriptedAgent
	scheduler *scriptedScheduler
	store     *repository.MemoryStore
	prefs     *settings.Store
	prompter  *stubPrompter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("ANALYSIS_PROGRESS_TICK_MS", "1")
	t.Setenv("HISTORY_BACKEND", config.HistoryBackendFile)
	t.Setenv("COORDINATOR_AGENT_ID", "coordinator-agent")
	t.Setenv("ALERT_AGENT_ID", "alert-agent")

	prefs, err := settings.NewStore(t.TempDir(), "cli-test")
	require.NoError(t, err)
	return &fixture{
		agent:     newScriptedAgent(),
		scheduler: &scriptedScheduler{active: true},
		store:     repository.NewMemoryStore(),
		prefs:     prefs,
		prompter:  &stubPrompter{},
	}
}

func (f *fixture) wire(ctx context.Context, cfg *config.Config) (*app.Dashboard, error) {
	d := app.New(cfg, app.Deps{
		Agent:       f.agent,
		Scheduler:   f.scheduler,
		Store:       f.store,
		Preferences: f.prefs,
	})
	d.Startup(ctx)
	return d, nil
}

func (f *fixture) run(args ...string) (string, error) {
	cmd := NewRootCmd(WithWire(f.wire), WithPrompter(f.prompter))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeWithFlags(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("analyze", "-s", "it services", "-s", "Defence", "--market-cap", "mid", "--risk", "aggressive", "--expand", "PERSISTENT")
	require.NoError(t, err)

	assert.Contains(t, out, "PERSISTENT")
	assert.Contains(t, out, "SOLARINDS")
	assert.Contains(t, out, "Screened 640 candidates")
	assert.Contains(t, out, "Deal wins accelerating")
	assert.Empty(t, f.prompter.asked)

	tasks := f.agent.sent("coordinator-agent")
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "Sectors: IT Services, Defence.")
	assert.Contains(t, tasks[0], "Mid (5,000-20,000 Cr)")
	assert.Contains(t, tasks[0], "Risk Tolerance: Aggressive")

	out, err = f.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "Analysis history (1 of 50)")
	assert.Contains(t, out, "Constructive")
}

func TestAnalyzePromptsWithoutSectorFlag(t *testing.T) {
	f := newFixture(t)

	_, err := f.run("analyze")
	require.NoError(t, err)
	assert.Equal(t, []string{"sectors", "market_cap", "risk"}, f.prompter.asked)

	tasks := f.agent.sent("coordinator-agent")
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "Sectors: Defence, Chemicals.")
	assert.Contains(t, tasks[0], "Risk Tolerance: Aggressive")
}

func TestAnalyzeSendsAlert(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("analyze", "-s", "Pharma", "--alert", "SOLARINDS")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent 1 stocks to Stock Alerts")

	alerts := f.agent.sent("alert-agent")
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "SOLARINDS")
	assert.NotContains(t, alerts[0], "PERSISTENT")
}

func TestAnalyzeFailures(t *testing.T) {
	t.Run("invalid market cap", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.run("analyze", "-s", "Pharma", "--market-cap", "huge")
		assert.ErrorContains(t, err, "invalid market cap")
		assert.Empty(t, f.agent.sent("coordinator-agent"))
	})

	t.Run("unknown sector", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.run("analyze", "-s", "Crypto")
		assert.ErrorContains(t, err, "unknown sector")
	})

	t.Run("agent reports failure", func(t *testing.T) {
		f := newFixture(t)
		f.agent.fail = true
		out, err := f.run("analyze", "-s", "Pharma")
		require.Error(t, err)
		assert.Contains(t, out, "Coordinator overloaded")

		out, err = f.run("history")
		require.NoError(t, err)
		assert.Contains(t, out, "No analyses recorded yet.")
	})
}

func TestScheduleCommands(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("schedule", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "weekly-screen")
	assert.Contains(t, out, models.DescribeCron("0 9 * * 1"))

	out, err = f.run("schedule", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule paused successfully")
	assert.Equal(t, 1, f.scheduler.paused)

	out, err = f.run("schedule", "trigger")
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule triggered successfully")

	out, err = f.run("schedule", "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "agent timeout")
	assert.Contains(t, out, "2/3")
}

func TestSettingsAndConnectionTest(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("settings", "set", "--team", "team-42", "--channel", "19:alerts@thread.tacv2", "--min-score", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Preferences saved")

	out, err = f.run("settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "team-42")
	assert.Contains(t, out, "7.0")

	_, err = f.run("settings", "set", "--risk-threshold", "extreme")
	assert.ErrorIs(t, err, settings.ErrInvalidPreferences)

	out, err = f.run("alert", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Connection test succeeded")
	tasks := f.agent.sent("alert-agent")
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "Team ID: team-42.")
}

func TestParsers(t *testing.T) {
	tier, err := parseMarketCap(" Large ")
	require.NoError(t, err)
	assert.Equal(t, models.MarketCapLarge, tier)

	risk, err := parseRisk("conservative")
	require.NoError(t, err)
	assert.Equal(t, models.RiskConservative, risk)
	_, err = parseRisk("yolo")
	assert.Error(t, err)

	sector, err := parseSector("bfsi")
	require.NoError(t, err)
	assert.Equal(t, "BFSI", sector)
}

func TestRenderRecommendationsEmpty(t *testing.T) {
	var b strings.Builder
	renderRecommendations(&b, nil)
	assert.Contains(t, b.String(), "No recommendations match")
}
