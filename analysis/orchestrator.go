package analysis

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"multibagger/config"
	"multibagger/history"
	"multibagger/internal/events"
	"multibagger/models"
	"multibagger/observability"
	"multibagger/services"
)

// ErrBusy is returned when a run is started while another is in flight
var ErrBusy = errors.New("an analysis is already running")

// State is the orchestrator's position in a run
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRequesting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRequesting:
		return "requesting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Run outcomes used as metric labels
const (
	outcomeSuccess    = "success"
	outcomeValidation = "validation"
	outcomeTransport  = "transport"
	outcomeProtocol   = "protocol"
)

// Settings hold the coordinator identity and progress simulation parameters
type Settings struct {
	CoordinatorID string
	Tick          time.Duration
	MaxIncrement  float64
	Cap           float64
}

// SettingsFromConfig copies the orchestrator settings out of cfg
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CoordinatorID: cfg.Agent.CoordinatorID,
		Tick:          cfg.ProgressTick(),
		MaxIncrement:  cfg.Analysis.ProgressMaxIncrement,
		Cap:           cfg.Analysis.ProgressCap,
	}
}

// Snapshot is a consistent copy of the orchestrator state
type Snapshot struct {
	State            string                 `json:"state"`
	Progress         float64                `json:"progress"`
	Error            string                 `json:"error,omitempty"`
	ActiveAgent      string                 `json:"active_agent,omitempty"`
	Criteria         Criteria               `json:"criteria"`
	Result           *models.AnalysisResult `json:"result,omitempty"`
	LastAnalysisTime string                 `json:"last_analysis_time,omitempty"`
	IsSample         bool                   `json:"is_sample"`
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPublisher announces completed runs
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithPublishTimeout bounds each completion announcement
func WithPublishTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.publishTimeout = d }
}

// WithRandom replaces the source of progress increments. fn returns values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(o *Orchestrator) { o.random = fn }
}

// WithClock replaces the completion time source
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) { o.now = fn }
}

// Orchestrator drives screening runs end to end and owns the displayed
// analysis result. Only one run is in flight at a time.
type Orchestrator struct {
	agent          services.AgentInvoker
	history        *history.Store
	publisher      events.Publisher
	publishTimeout time.Duration
	settings       Settings
	random         func() float64
	now            func() time.Time

	mu               sync.RWMutex
	state            State
	progress         float64
	failure          error
	activeAgent      string
	criteria         Criteria
	result           *models.AnalysisResult
	lastAnalysisTime string
	runDone          chan struct{}
}

// New creates an idle orchestrator
func New(agent services.AgentInvoker, hist *history.Store, settings Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		agent:          agent,
		history:        hist,
		publisher:      events.Noop{},
		publishTimeout: events.DefaultPublishTimeout,
		settings:       settings,
		random:         rand.Float64,
		now:            time.Now,
		criteria:       DefaultCriteria(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs a full screening run and returns when it is over. The returned
// error is a *models.Failure for validation, transport and protocol failures,
// or ErrBusy.
func (o *Orchestrator) Run(ctx context.Context, c Criteria) error {
	done, err := o.begin(c)
	if err != nil {
		return err
	}
	return o.execute(ctx, c, done)
}

// Start validates c and runs the analysis in the background. Validation
// failures and ErrBusy are returned directly; the run outcome is observed
// through Snapshot. The run is not cancelled when ctx is.
func (o *Orchestrator) Start(ctx context.Context, c Criteria) error {
	done, err := o.begin(c)
	if err != nil {
		return err
	}
	go func() {
		_ = o.execute(context.WithoutCancel(ctx), c, done)
	}()
	return nil
}

// Wait blocks until the in-flight run, if any, has finished
func (o *Orchestrator) Wait() {
	o.mu.RLock()
	done := o.runDone
	o.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) begin(c Criteria) (chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateRequesting || o.state == StateValidating {
		return nil, ErrBusy
	}

	o.state = StateValidating
	o.criteria = c.Clone()

	if len(c.Sectors) == 0 {
		failure := models.NewValidationFailure()
		o.state = StateFailed
		o.failure = failure
		observability.GetMetrics().RecordAnalysisRun(outcomeValidation, 0)
		return nil, failure
	}

	o.state = StateRequesting
	o.failure = nil
	o.progress = 0
	o.activeAgent = o.settings.CoordinatorID
	o.runDone = make(chan struct{})
	return o.runDone, nil
}

func (o *Orchestrator) execute(ctx context.Context, c Criteria, done chan struct{}) error {
	defer close(done)

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	log := observability.WithAgent(o.settings.CoordinatorID)
	log.Info("analysis started", "sectors", c.Sectors, "market_cap", c.MarketCap.Label(), "risk", c.riskTolerance())

	sim := startProgress(o.settings.Tick, o.advance)
	resp, err := o.agent.Invoke(ctx, c.Task(), o.settings.CoordinatorID)
	sim.Stop()

	result, failure, outcome := interpret(resp, err)
	timer.ObserveAnalysis(outcome)

	if failure != nil {
		o.mu.Lock()
		o.state = StateFailed
		o.failure = failure
		o.activeAgent = ""
		o.mu.Unlock()

		log.Warn("analysis failed", "outcome", outcome, "error", failure.Error())
		return failure
	}

	completedAt := o.now()
	o.mu.Lock()
	o.result = result
	o.lastAnalysisTime = completedAt.Format(models.HistoryTimeLayout)
	o.progress = 100
	o.state = StateCompleted
	o.activeAgent = ""
	o.mu.Unlock()

	metrics.RecordRecommendations(len(result.Recommendations))
	entry := models.NewHistoryEntry(result, completedAt)
	if o.history != nil {
		o.history.Append(ctx, entry)
	}
	pubCtx, cancel := context.WithTimeout(ctx, o.publishTimeout)
	err = o.publisher.PublishAnalysisCompleted(pubCtx, entry)
	cancel()
	if err != nil {
		observability.WithError(err).Warn("analysis event not published", "history_id", entry.ID)
	}

	log.Info("analysis completed",
		"recommendations", len(result.Recommendations),
		"screened", result.TotalCandidatesScreened,
		"duration_ms", timer.Duration().Milliseconds())
	return nil
}

// interpret maps an agent reply to a result or a failure
func interpret(resp *services.AgentResponse, err error) (*models.AnalysisResult, *models.Failure, string) {
	if errors.Is(err, models.ErrMalformedReply) {
		return nil, models.NewFormatFailure(err), outcomeProtocol
	}
	if err != nil {
		return nil, models.NewTransportFailure(err), outcomeTransport
	}
	if resp.Unstructured() {
		return nil, models.NewFormatFailure(errors.New("agent reply has no response object")), outcomeProtocol
	}
	if !resp.Succeeded() {
		return nil, models.NewAgentFailure(resp.Message()), outcomeProtocol
	}
	result, err := models.DecodeAnalysisResult(resp.Result())
	if err != nil {
		return nil, models.NewFormatFailure(err), outcomeProtocol
	}
	return result, nil, outcomeSuccess
}

func (o *Orchestrator) advance() {
	o.mu.Lock()
	o.progress = nextProgress(o.progress, o.random()*o.settings.MaxIncrement, o.settings.Cap)
	o.mu.Unlock()
	observability.GetMetrics().RecordProgressTick()
}

// LoadSample installs the demonstration result when nothing is displayed and
// no run is in flight. It reports whether the sample was installed.
func (o *Orchestrator) LoadSample() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateRequesting || (o.result != nil && len(o.result.Recommendations) > 0) {
		return false
	}
	o.result = models.SampleAnalysis()
	o.criteria.Sectors = append([]string(nil), models.SampleSectors...)
	o.lastAnalysisTime = models.SampleLabel
	return true
}

// ClearSample removes the displayed result if it is the demonstration result.
// It reports whether anything was removed.
func (o *Orchestrator) ClearSample() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateRequesting || o.lastAnalysisTime != models.SampleLabel {
		return false
	}
	o.result = nil
	o.lastAnalysisTime = ""
	return true
}

// Criteria returns the current screening parameters
func (o *Orchestrator) Criteria() Criteria {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.criteria.Clone()
}

// SetCriteria replaces the screening parameters used by the next run
func (o *Orchestrator) SetCriteria(c Criteria) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.criteria = c.Clone()
}

// ToggleSector flips one sector in the current parameters
func (o *Orchestrator) ToggleSector(name string) Criteria {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.criteria.ToggleSector(name)
	return o.criteria.Clone()
}

// Result returns a copy of the displayed result, or nil
func (o *Orchestrator) Result() *models.AnalysisResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.result.Clone()
}

// Recommendations returns the displayed recommendations in agent order
func (o *Orchestrator) Recommendations() []models.Recommendation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.result == nil {
		return []models.Recommendation{}
	}
	return append([]models.Recommendation{}, o.result.Recommendations...)
}

// Busy reports whether a run is in flight
func (o *Orchestrator) Busy() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state == StateRequesting
}

// Progress returns the displayed progress percentage
func (o *Orchestrator) Progress() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.progress
}

// ActiveAgent returns the agent a run is waiting on, or ""
func (o *Orchestrator) ActiveAgent() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.activeAgent
}

// Snapshot returns the full orchestrator state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Snapshot{
		State:            o.state.String(),
		Progress:         o.progress,
		Error:            models.UserMessage(o.failure),
		ActiveAgent:      o.activeAgent,
		Criteria:         o.criteria.Clone(),
		Result:           o.result.Clone(),
		LastAnalysisTime: o.lastAnalysisTime,
		IsSample:         o.lastAnalysisTime == models.SampleLabel,
	}
}
