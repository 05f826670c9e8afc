// Package e2e provides end-to-end testing infrastructure for the screener.
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"multibagger/config"
	"multibagger/e2e/mocks"
	"multibagger/internal/api"
	"multibagger/internal/app"
)

// Agent and schedule identifiers the harness configures
const (
	CoordinatorID = "coordinator-e2e"
	AlertID       = "alert-e2e"
	ScheduleID    = "weekly-screen"
)

// TestHarness wires the real clients, file-backed history and the HTTP API
// against the mock agent and scheduler.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	dash       *app.Dashboard
	router     http.Handler
	config     *config.Config
}

// NewTestHarness creates a harness. Call Setup before use.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup starts the mock server and wires the dashboard against it.
func (h *TestHarness) Setup() error {
	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig(h.t.TempDir())
	return h.wire()
}

// Restart rewires the dashboard over the same data directories, as a process
// restart would.
func (h *TestHarness) Restart() error {
	if err := h.dash.Shutdown(); err != nil {
		return err
	}
	return h.wire()
}

func (h *TestHarness) wire() error {
	dash, err := app.Wire(h.ctx, h.config)
	if err != nil {
		return err
	}
	h.dash = dash
	h.router = api.NewRouter(api.NewHandler(dash, h.config), h.config)
	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.dash != nil {
		if err := h.dash.Shutdown(); err != nil {
			h.t.Logf("dashboard shutdown: %v", err)
		}
	}
	if h.mockServer != nil {
		h.mockServer.Close()
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// Dashboard returns the wired dashboard.
func (h *TestHarness) Dashboard() *app.Dashboard {
	return h.dash
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request against the API.
func (h *TestHarness) DoRequest(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// DecodeJSON decodes a response body into a generic object.
func (h *TestHarness) DecodeJSON(w *httptest.ResponseRecorder) map[string]any {
	h.t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		h.t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

// RunAnalysis starts an analysis over HTTP and waits for it to finish.
func (h *TestHarness) RunAnalysis(body string) map[string]any {
	h.t.Helper()
	w := h.DoRequest(http.MethodPost, "/api/analysis", body)
	if w.Code != http.StatusAccepted {
		h.t.Fatalf("POST /api/analysis status = %d, body %s", w.Code, w.Body.String())
	}
	h.dash.Analysis().Wait()
	return h.DecodeJSON(h.DoRequest(http.MethodGet, "/api/state", ""))
}

func (h *TestHarness) createTestConfig(dir string) *config.Config {
	cfg := config.NewTestConfig()
	cfg.Agent.BaseURL = h.mockServer.URL()
	cfg.Agent.CoordinatorID = CoordinatorID
	cfg.Agent.AlertID = AlertID
	cfg.Agent.TimeoutSeconds = 5
	cfg.Schedule.BaseURL = h.mockServer.URL()
	cfg.Schedule.ScheduleID = ScheduleID
	cfg.Analysis.ProgressTickMillis = 5
	cfg.History.DataDir = dir + "/history"
	cfg.Settings.DataDir = dir + "/settings"
	cfg.Settings.Passphrase = "e2e-test-passphrase"
	return cfg
}
