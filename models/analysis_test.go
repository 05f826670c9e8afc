package models

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeAnalysisResult_Object(t *testing.T) {
	payload := map[string]any{
		"recommendations": []any{
			map[string]any{"ticker": "TATAELXSI", "rank": float64(1)},
			map[string]any{"ticker": "DIXON", "rank": float64(2)},
		},
		"analysis_summary":          "summary",
		"market_outlook":            "outlook",
		"total_candidates_screened": float64(1847),
		"analysis_date":             "2025-02-15",
	}

	result, err := DecodeAnalysisResult(payload)
	if err != nil {
		t.Fatalf("DecodeAnalysisResult() error = %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Errorf("expected 2 recommendations, got %d", len(result.Recommendations))
	}
	if result.TotalCandidatesScreened != 1847 {
		t.Errorf("TotalCandidatesScreened = %d, want 1847", result.TotalCandidatesScreened)
	}
	if result.AnalysisDate != "2025-02-15" {
		t.Errorf("AnalysisDate = %q", result.AnalysisDate)
	}
}

func TestDecodeAnalysisResult_FencedString(t *testing.T) {
	payload := "```json\n{\"recommendations\": [{\"ticker\": \"CLEAN\"}], \"market_outlook\": \"calm\"}\n```"

	result, err := DecodeAnalysisResult(payload)
	if err != nil {
		t.Fatalf("DecodeAnalysisResult() error = %v", err)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Ticker != "CLEAN" {
		t.Errorf("unexpected recommendations: %+v", result.Recommendations)
	}
	if result.AnalysisSummary != "" {
		t.Errorf("missing summary should default to empty, got %q", result.AnalysisSummary)
	}
}

func TestDecodeAnalysisResult_EmptyListIsValid(t *testing.T) {
	result, err := DecodeAnalysisResult(map[string]any{"recommendations": []any{}})
	if err != nil {
		t.Fatalf("empty list should decode, got %v", err)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(result.Recommendations))
	}
}

func TestDecodeAnalysisResult_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"nil", nil},
		{"missing list", map[string]any{"analysis_summary": "x"}},
		{"list is object", map[string]any{"recommendations": map[string]any{}}},
		{"list is string", map[string]any{"recommendations": "TATAELXSI"}},
		{"not json", "the agent is thinking"},
		{"number", float64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeAnalysisResult(tt.payload); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := DecodeAnalysisResult(map[string]any{}); !errors.Is(err, ErrMissingRecommendations) {
		t.Errorf("expected ErrMissingRecommendations, got %v", err)
	}
}

func TestAnalysisResult_CloneAndFind(t *testing.T) {
	orig := SampleAnalysis()
	clone := orig.Clone()
	clone.Recommendations[0].Ticker = "CHANGED"

	if orig.Recommendations[0].Ticker != "TATAELXSI" {
		t.Error("Clone should not share the recommendations slice")
	}

	rec, ok := orig.Find("KAYNES")
	if !ok || rec.Rank != 4 {
		t.Errorf("Find(KAYNES) = %+v, %v", rec, ok)
	}
	if _, ok := orig.Find("NOPE"); ok {
		t.Error("Find should miss unknown tickers")
	}

	var nilResult *AnalysisResult
	if nilResult.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestNewHistoryEntry(t *testing.T) {
	result := SampleAnalysis()
	at := time.Date(2025, 2, 15, 9, 30, 0, 0, time.UTC)

	a := NewHistoryEntry(result, at)
	b := NewHistoryEntry(result, at)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids should be unique and non-empty: %q %q", a.ID, b.ID)
	}
	if a.RecommendationsCount != 5 {
		t.Errorf("RecommendationsCount = %d, want 5", a.RecommendationsCount)
	}
	if a.TotalCandidatesScreened != 1847 {
		t.Errorf("TotalCandidatesScreened = %d, want 1847", a.TotalCandidatesScreened)
	}
	if a.Timestamp != "15/02/2025, 09:30:00" {
		t.Errorf("Timestamp = %q", a.Timestamp)
	}
}

func TestDecodeHistory(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"corrupt", "{not json", 0},
		{"object", `{"id":"x"}`, 0},
		{"null", "null", 0},
		{"mixed", `[{"id":"a","recommendations_count":3}, 7, {"id":"b"}]`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeHistory([]byte(tt.data))
			if got == nil {
				t.Fatal("DecodeHistory should never return nil")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	entries := DecodeHistory([]byte(`[{"id":"a","recommendations_count":3}]`))
	if entries[0].RecommendationsCount != 3 {
		t.Errorf("RecommendationsCount = %d, want 3", entries[0].RecommendationsCount)
	}
}

func TestFailure(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(NewTransportFailure(cause))

	f, ok := AsFailure(err)
	if !ok || f.Kind != FailureTransport {
		t.Fatalf("AsFailure() = %+v, %v", f, ok)
	}
	if !errors.Is(err, cause) {
		t.Error("Failure should unwrap to its cause")
	}
	if UserMessage(err) != MsgNetworkError {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}

	if NewAgentFailure("").Message != MsgAnalysisFailed {
		t.Error("empty agent message should fall back to the generic message")
	}
	if NewAgentFailure("quota exceeded").Message != "quota exceeded" {
		t.Error("agent message should be preserved")
	}
	if UserMessage(errors.New("boom")) != MsgAnalysisFailed {
		t.Error("plain errors should map to the generic message")
	}
	if UserMessage(nil) != "" {
		t.Error("nil error should have no message")
	}
}
