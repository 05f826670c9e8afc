// Package mocks provides an HTTP mock of the agent and scheduler services.
package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"multibagger/models"
)

// MockServer answers agent invocations and schedule requests with
// configurable replies.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server
	router chi.Router

	// Agent behaviour
	analysisResult   any
	agentFailure     string
	agentStatusCode  int
	agentDelay       time.Duration
	connectionFailed bool
	rawAgentReply    string

	// Scheduler behaviour
	schedule            *models.Schedule
	logs                []models.ExecutionLog
	schedulerStatusCode int
	scheduleRejection   string
	triggers            int

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Body   string
}

// NewMockServer creates and starts a mock server with default responses.
func NewMockServer() *MockServer {
	m := NewMockHandler()
	m.server = httptest.NewServer(m)
	return m
}

// NewMockHandler creates a mock without starting a listener, for callers
// that serve it themselves.
func NewMockHandler() *MockServer {
	m := &MockServer{}
	m.Reset()

	r := chi.NewRouter()
	r.Post("/api/agent", m.handleAgent)
	r.Route("/api/schedules/{id}", func(r chi.Router) {
		r.Get("/", m.handleGetSchedule)
		r.Post("/pause", m.handleSetActive(false))
		r.Post("/resume", m.handleSetActive(true))
		r.Post("/trigger", m.handleTrigger)
		r.Get("/logs", m.handleLogs)
	})
	m.router = r
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

// Reset restores the default replies and clears the request log.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analysisResult = models.SampleAnalysis()
	m.agentFailure = ""
	m.agentStatusCode = 0
	m.agentDelay = 0
	m.connectionFailed = false
	m.rawAgentReply = ""
	m.schedule = DefaultSchedule()
	m.logs = DefaultLogs()
	m.schedulerStatusCode = 0
	m.scheduleRejection = ""
	m.triggers = 0
	m.requestLog = nil
}

// ServeHTTP logs the request and routes it.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := ""
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		r.Body = io.NopCloser(strings.NewReader(body))
	}

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   body,
	})
	m.mu.Unlock()

	m.router.ServeHTTP(w, r)
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// AgentTasks returns the tasks posted to agentID, in order.
func (m *MockServer) AgentTasks(agentID string) []string {
	var tasks []string
	for _, l := range m.GetRequestLog() {
		if l.Path != "/api/agent" {
			continue
		}
		var req AgentRequest
		if json.Unmarshal([]byte(l.Body), &req) == nil && req.AgentID == agentID {
			tasks = append(tasks, req.Task)
		}
	}
	return tasks
}

// SetAnalysisResult sets the coordinator's result payload. Any JSON value,
// including a string, is accepted.
func (m *MockServer) SetAnalysisResult(result any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analysisResult = result
}

// SetAgentFailure makes every agent reply with a non-success status and msg.
func (m *MockServer) SetAgentFailure(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentFailure = msg
}

// SetAgentStatusCode makes the agent endpoint fail with an HTTP status.
func (m *MockServer) SetAgentStatusCode(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentStatusCode = code
}

// SetAgentDelay delays every agent reply.
func (m *MockServer) SetAgentDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentDelay = d
}

// SetRawAgentReply makes every agent call answer 200 with body verbatim
func (m *MockServer) SetRawAgentReply(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rawAgentReply = body
}

// SetConnectionFailed makes connection tests report failure.
func (m *MockServer) SetConnectionFailed(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectionFailed = failed
}

// SetSchedule replaces the stored schedule.
func (m *MockServer) SetSchedule(s *models.Schedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = s
}

// SetLogs replaces the execution logs.
func (m *MockServer) SetLogs(logs []models.ExecutionLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = logs
}

// SetSchedulerStatusCode makes every scheduler request fail with an HTTP status.
func (m *MockServer) SetSchedulerStatusCode(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedulerStatusCode = code
}

// SetScheduleRejection makes the scheduler answer with success=false.
func (m *MockServer) SetScheduleRejection(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleRejection = msg
}

// ScheduleActive reports the scheduler-side active flag.
func (m *MockServer) ScheduleActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schedule != nil && m.schedule.IsActive
}

// Triggers returns how many times the schedule was triggered.
func (m *MockServer) Triggers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.triggers
}

func (m *MockServer) handleAgent(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	delay, code, failure := m.agentDelay, m.agentStatusCode, m.agentFailure
	analysis, connFailed, raw := m.analysisResult, m.connectionFailed, m.rawAgentReply
	m.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if code != 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}
	if raw != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, raw)
		return
	}

	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, agentEnvelope{Error: "invalid body"})
		return
	}

	if failure != "" {
		writeJSON(w, http.StatusOK, agentEnvelope{Success: true, Response: &AgentReply{Status: "error", Message: failure}})
		return
	}

	var reply AgentReply
	switch {
	case strings.HasPrefix(req.Task, analysisTaskPrefix):
		reply = AgentReply{Status: "success", Result: analysis}
	case strings.HasPrefix(req.Task, alertTaskPrefix):
		reply = AgentReply{Status: "success", Result: deliveryFor(req.Task)}
	case strings.HasPrefix(req.Task, connectionTaskPrefix):
		reply = AgentReply{Status: "success", Result: map[string]any{"connected": true}}
		if connFailed {
			reply = AgentReply{Status: "error", Message: "channel not reachable"}
		}
	default:
		reply = AgentReply{Status: "error", Message: "unrecognised task"}
	}
	writeJSON(w, http.StatusOK, agentEnvelope{Success: true, Response: &reply})
}

// deliveryFor counts the stocks in an alert task's JSON list
func deliveryFor(task string) map[string]any {
	var stocks []map[string]any
	if i := strings.Index(task, "\n"); i >= 0 {
		_ = json.Unmarshal([]byte(task[i+1:]), &stocks)
	}
	preview := ""
	if len(stocks) > 0 {
		preview, _ = stocks[0]["ticker"].(string)
	}
	return map[string]any{
		"delivery_status": "delivered",
		"channel_name":    "Stock Alerts",
		"message_preview": preview,
		"stocks_included": len(stocks),
		"alert_type":      "manual",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
}

// schedulerGuard applies injected failures; it reports whether the request
// was already answered
func (m *MockServer) schedulerGuard(w http.ResponseWriter) bool {
	m.mu.RLock()
	code, rejection := m.schedulerStatusCode, m.scheduleRejection
	m.mu.RUnlock()

	if code != 0 {
		http.Error(w, http.StatusText(code), code)
		return true
	}
	if rejection != "" {
		writeJSON(w, http.StatusOK, scheduleEnvelope{Error: rejection})
		return true
	}
	return false
}

func (m *MockServer) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	if m.schedulerGuard(w) {
		return
	}
	m.mu.RLock()
	s := m.schedule
	m.mu.RUnlock()
	if s == nil || s.ID != chi.URLParam(r, "id") {
		writeJSON(w, http.StatusNotFound, scheduleEnvelope{Error: "schedule not found"})
		return
	}
	writeJSON(w, http.StatusOK, scheduleEnvelope{Success: true, Schedule: s})
}

func (m *MockServer) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.schedulerGuard(w) {
			return
		}
		m.mu.Lock()
		if m.schedule != nil {
			s := *m.schedule
			s.IsActive = active
			m.schedule = &s
		}
		m.mu.Unlock()
		writeJSON(w, http.StatusOK, scheduleEnvelope{Success: true})
	}
}

func (m *MockServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if m.schedulerGuard(w) {
		return
	}
	m.mu.Lock()
	m.triggers++
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, scheduleEnvelope{Success: true})
}

func (m *MockServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if m.schedulerGuard(w) {
		return
	}
	m.mu.RLock()
	logs := append([]models.ExecutionLog(nil), m.logs...)
	m.mu.RUnlock()

	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	writeJSON(w, http.StatusOK, scheduleEnvelope{Success: true, Executions: logs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
