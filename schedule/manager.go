package schedule

import (
	"context"
	"sync"
	"time"

	"multibagger/models"
	"multibagger/observability"
	"multibagger/services"
)

// Outcome messages shown after schedule actions
const (
	MsgPaused          = "Schedule paused successfully"
	MsgResumed         = "Schedule resumed successfully"
	MsgUpdateFailed    = "Failed to update schedule"
	MsgTriggered       = "Schedule triggered successfully. Check logs for results."
	MsgTriggerFailed   = "Failed to trigger schedule"
	MsgScheduleMissing = "Schedule not loaded"
)

// DefaultLogLimit is the number of execution logs fetched per request
const DefaultLogLimit = 10

// Snapshot is a consistent copy of the mirror
type Snapshot struct {
	Schedule    *models.Schedule      `json:"schedule,omitempty"`
	Description string                `json:"description,omitempty"`
	Message     string                `json:"message,omitempty"`
	Logs        []models.ExecutionLog `json:"logs"`
	Updating    bool                  `json:"updating"`
	Triggering  bool                  `json:"triggering"`
	LoadingLogs bool                  `json:"loading_logs"`
}

// Manager keeps a local mirror of one external schedule. Local state changes
// only after the scheduler acknowledges a request.
type Manager struct {
	svc      services.ScheduleService
	id       string
	logLimit int

	mu          sync.RWMutex
	schedule    *models.Schedule
	message     string
	logs        []models.ExecutionLog
	updating    bool
	triggering  bool
	loadingLogs bool
}

// New creates an empty mirror of the schedule identified by id
func New(svc services.ScheduleService, id string, logLimit int) *Manager {
	if logLimit <= 0 {
		logLimit = DefaultLogLimit
	}
	return &Manager{
		svc:      svc,
		id:       id,
		logLimit: logLimit,
		logs:     []models.ExecutionLog{},
	}
}

// ID returns the mirrored schedule id
func (m *Manager) ID() string {
	return m.id
}

// Refresh fetches the schedule. On failure the previous mirror is kept and
// the error is returned for logging.
func (m *Manager) Refresh(ctx context.Context) (*models.Schedule, error) {
	m.setFlag(&m.updating, true)
	defer m.setFlag(&m.updating, false)

	s, err := m.svc.Get(ctx, m.id)
	if err != nil {
		observability.WithError(err).Warn("schedule refresh failed", "schedule_id", m.id)
		return m.Schedule(), err
	}

	m.mu.Lock()
	m.schedule = s
	m.mu.Unlock()
	return cloneSchedule(s), nil
}

// Toggle pauses an active schedule or resumes a paused one. The local active
// flag flips only after the scheduler acknowledges. It returns the outcome
// message and whether the change was applied.
func (m *Manager) Toggle(ctx context.Context) (string, bool) {
	m.mu.Lock()
	if m.schedule == nil {
		m.message = MsgScheduleMissing
		m.mu.Unlock()
		return MsgScheduleMissing, false
	}
	wasActive := m.schedule.IsActive
	id := m.schedule.ID
	if id == "" {
		id = m.id
	}
	m.updating = true
	m.message = ""
	m.mu.Unlock()

	var err error
	if wasActive {
		err = m.svc.Pause(ctx, id)
	} else {
		err = m.svc.Resume(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.updating = false

	if err != nil {
		observability.WithError(err).Warn("schedule toggle failed", "schedule_id", id, "was_active", wasActive)
		m.message = MsgUpdateFailed
		return m.message, false
	}

	if m.schedule != nil {
		updated := *m.schedule
		updated.IsActive = !wasActive
		m.schedule = &updated
	}
	if wasActive {
		m.message = MsgPaused
	} else {
		m.message = MsgResumed
	}
	observability.Info("schedule toggled", "schedule_id", id, "active", !wasActive)
	return m.message, true
}

// TriggerNow asks the scheduler to run the job immediately
func (m *Manager) TriggerNow(ctx context.Context) (string, bool) {
	m.mu.Lock()
	m.triggering = true
	m.message = ""
	m.mu.Unlock()

	err := m.svc.TriggerNow(ctx, m.id)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggering = false
	if err != nil {
		observability.WithError(err).Warn("schedule trigger failed", "schedule_id", m.id)
		m.message = MsgTriggerFailed
		return m.message, false
	}
	m.message = MsgTriggered
	return m.message, true
}

// LoadLogs fetches recent execution logs. On failure the previously loaded
// logs are kept.
func (m *Manager) LoadLogs(ctx context.Context) ([]models.ExecutionLog, error) {
	m.setFlag(&m.loadingLogs, true)
	defer m.setFlag(&m.loadingLogs, false)

	logs, err := m.svc.Logs(ctx, m.id, m.logLimit)
	if err != nil {
		observability.WithError(err).Warn("schedule logs unavailable", "schedule_id", m.id)
		return m.Logs(), err
	}

	m.mu.Lock()
	m.logs = append([]models.ExecutionLog{}, logs...)
	m.mu.Unlock()
	return logs, nil
}

// RefreshLoop refreshes the mirror immediately and then every interval until
// ctx is done. Failures are logged and do not stop the loop.
func (m *Manager) RefreshLoop(ctx context.Context, interval time.Duration) error {
	_, _ = m.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = m.Refresh(ctx)
		}
	}
}

func (m *Manager) setFlag(flag *bool, v bool) {
	m.mu.Lock()
	*flag = v
	m.mu.Unlock()
}

// Schedule returns a copy of the mirrored schedule, or nil
func (m *Manager) Schedule() *models.Schedule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSchedule(m.schedule)
}

// Logs returns the last loaded execution logs
func (m *Manager) Logs() []models.ExecutionLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ExecutionLog{}, m.logs...)
}

// Message returns the outcome of the last toggle or trigger
func (m *Manager) Message() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.message
}

// Snapshot returns the full mirror state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		Schedule:    cloneSchedule(m.schedule),
		Message:     m.message,
		Logs:        append([]models.ExecutionLog{}, m.logs...),
		Updating:    m.updating,
		Triggering:  m.triggering,
		LoadingLogs: m.loadingLogs,
	}
	if m.schedule != nil {
		s.Description = m.schedule.Description()
	}
	return s
}

func cloneSchedule(s *models.Schedule) *models.Schedule {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
