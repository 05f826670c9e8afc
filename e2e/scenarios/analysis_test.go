package scenarios

import (
	"net/http"
	"strings"
	"testing"

	"multibagger/e2e"
	"multibagger/models"
)

func setup(t *testing.T) *e2e.TestHarness {
	t.Helper()
	harness := e2e.NewTestHarness(t)
	if err := harness.Setup(); err != nil {
		t.Fatalf("failed to setup test harness: %v", err)
	}
	t.Cleanup(harness.Teardown)
	return harness
}

func tickers(state map[string]any) []string {
	var out []string
	for _, item := range state["recommendations"].([]any) {
		out = append(out, item.(map[string]any)["ticker"].(string))
	}
	return out
}

func analysisOf(state map[string]any) map[string]any {
	return state["analysis"].(map[string]any)
}

func TestAnalysisWorkflow_Success(t *testing.T) {
	harness := setup(t)

	state := harness.RunAnalysis(`{"sectors":["Pharma","IT Services"],"market_cap":1,"risk_tolerance":"Conservative"}`)

	a := analysisOf(state)
	if a["state"] != "completed" || a["progress"] != 100.0 {
		t.Errorf("analysis = %v, want completed at 100", a)
	}
	if a["last_analysis_time"] == "" || a["last_analysis_time"] == models.SampleLabel {
		t.Errorf("last_analysis_time = %v, want a real timestamp", a["last_analysis_time"])
	}

	got := tickers(state)
	want := []string{"TATAELXSI", "DIXON", "CLEAN", "KAYNES", "MANKIND"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("tickers = %v, want %v (composite order)", got, want)
	}

	tasks := harness.MockServer().AgentTasks(e2e.CoordinatorID)
	if len(tasks) != 1 {
		t.Fatalf("coordinator received %d tasks, want 1", len(tasks))
	}
	for _, fragment := range []string{"Sectors: Pharma, IT Services.", "Small (500-5,000 Cr)", "Risk Tolerance: Conservative"} {
		if !strings.Contains(tasks[0], fragment) {
			t.Errorf("task missing %q: %s", fragment, tasks[0])
		}
	}

	stats := state["stats"].(map[string]any)
	if stats["total_screened"] != 1847.0 || stats["analyses_completed"] != 1.0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestAnalysisWorkflow_FailuresKeepPreviousResult(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(h *e2e.TestHarness)
		wantErr string
	}{
		{
			name:    "agent reports failure",
			arrange: func(h *e2e.TestHarness) { h.MockServer().SetAgentFailure("Coordinator quota exceeded") },
			wantErr: "Coordinator quota exceeded",
		},
		{
			name:    "endpoint unavailable",
			arrange: func(h *e2e.TestHarness) { h.MockServer().SetAgentStatusCode(http.StatusBadGateway) },
			wantErr: models.MsgNetworkError,
		},
		{
			name: "result without recommendations",
			arrange: func(h *e2e.TestHarness) {
				h.MockServer().SetAnalysisResult(map[string]any{"analysis_summary": "nothing"})
			},
			wantErr: models.MsgUnexpectedFormat,
		},
		{
			name:    "reply body is not json",
			arrange: func(h *e2e.TestHarness) { h.MockServer().SetRawAgentReply("<html>gateway ok</html>") },
			wantErr: models.MsgUnexpectedFormat,
		},
		{
			name: "response is prose",
			arrange: func(h *e2e.TestHarness) {
				h.MockServer().SetRawAgentReply(`{"success":true,"response":"All done."}`)
			},
			wantErr: models.MsgUnexpectedFormat,
		},
		{
			name:    "result is not json",
			arrange: func(h *e2e.TestHarness) { h.MockServer().SetAnalysisResult("I could not complete the screen") },
			wantErr: models.MsgUnexpectedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			harness := setup(t)
			harness.RunAnalysis(`{"sectors":["Defence"]}`)

			tt.arrange(harness)
			state := harness.RunAnalysis(`{"sectors":["Chemicals"]}`)

			a := analysisOf(state)
			if a["state"] != "failed" {
				t.Errorf("state = %v, want failed", a["state"])
			}
			if a["error"] != tt.wantErr {
				t.Errorf("error = %v, want %q", a["error"], tt.wantErr)
			}
			if got := len(tickers(state)); got != 5 {
				t.Errorf("displayed %d recommendations, want previous 5", got)
			}
			if got := len(state["history"].([]any)); got != 1 {
				t.Errorf("history length = %d, want 1", got)
			}
		})
	}
}

func TestAnalysisWorkflow_OddEnvelopeFieldsStillComplete(t *testing.T) {
	harness := setup(t)
	harness.MockServer().SetRawAgentReply(`{"success":true,"response":{"status":"success",` +
		`"result":{"recommendations":[{"ticker":"BEL","composite_score":8.1}]},"message":{"detail":"x"}},"error":null}`)

	state := harness.RunAnalysis(`{"sectors":["Defence"]}`)

	if a := analysisOf(state); a["state"] != "completed" {
		t.Fatalf("analysis = %v, want completed", a)
	}
	if got := tickers(state); len(got) != 1 || got[0] != "BEL" {
		t.Errorf("tickers = %v, want [BEL]", got)
	}
}

func TestAnalysisWorkflow_FencedStringResult(t *testing.T) {
	harness := setup(t)
	harness.MockServer().SetAnalysisResult("```json\n" +
		`{"recommendations":[{"ticker":"HAL","company_name":"Hindustan Aeronautics","composite_score":8.4}],"total_candidates_screened":210}` +
		"\n```")

	state := harness.RunAnalysis(`{"sectors":["Defence"]}`)
	if got := tickers(state); len(got) != 1 || got[0] != "HAL" {
		t.Fatalf("tickers = %v, want [HAL]", got)
	}
	rec := state["recommendations"].([]any)[0].(map[string]any)
	if rec["rank"] != float64(models.MissingRank) || rec["risk_level"] != models.PlaceholderRisk {
		t.Errorf("defaults not applied: %v", rec)
	}
}

func TestAnalysisWorkflow_Validation(t *testing.T) {
	harness := setup(t)

	w := harness.DoRequest(http.MethodPost, "/api/analysis", `{"sectors":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if n := len(harness.MockServer().AgentTasks(e2e.CoordinatorID)); n != 0 {
		t.Errorf("coordinator received %d tasks, want none", n)
	}
}

func TestHistory_PersistsAcrossRestartAndIsBounded(t *testing.T) {
	harness := setup(t)
	harness.Config().History.Capacity = 2
	if err := harness.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	for range 3 {
		harness.RunAnalysis(`{"sectors":["Auto"]}`)
	}

	if err := harness.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	w := harness.DoRequest(http.MethodGet, "/api/history", "")
	body := harness.DecodeJSON(w)
	if body["count"] != 2.0 {
		t.Errorf("history count after restart = %v, want 2", body["count"])
	}
	for _, e := range body["entries"].([]any) {
		entry := e.(map[string]any)
		if entry["recommendations_count"] != 5.0 || entry["total_candidates_screened"] != 1847.0 {
			t.Errorf("entry = %v", entry)
		}
	}
}

func TestSampleData(t *testing.T) {
	harness := setup(t)

	w := harness.DoRequest(http.MethodPost, "/api/sample", "")
	if got := harness.DecodeJSON(w)["loaded"]; got != true {
		t.Fatalf("loaded = %v", got)
	}
	state := harness.DecodeJSON(harness.DoRequest(http.MethodGet, "/api/state", ""))
	if a := analysisOf(state); a["is_sample"] != true || a["last_analysis_time"] != models.SampleLabel {
		t.Errorf("analysis = %v, want sample", a)
	}
	if got := len(state["history"].([]any)); got != 0 {
		t.Errorf("sample created %d history entries", got)
	}

	harness.RunAnalysis(`{"sectors":["FMCG"]}`)
	w = harness.DoRequest(http.MethodDelete, "/api/sample", "")
	if got := harness.DecodeJSON(w)["cleared"]; got != false {
		t.Errorf("cleared a real result: %v", got)
	}
}
