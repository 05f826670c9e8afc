package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryTimeLayout is the human readable timestamp stored on history entries
const HistoryTimeLayout = "02/01/2006, 15:04:05"

// HistoryEntry is an immutable record of one completed analysis run
type HistoryEntry struct {
	ID                      string `json:"id"`
	Timestamp               string `json:"timestamp"`
	TotalCandidatesScreened int    `json:"total_candidates_screened"`
	RecommendationsCount    int    `json:"recommendations_count"`
	MarketOutlook           string `json:"market_outlook"`
	AnalysisSummary         string `json:"analysis_summary"`
}

// NewHistoryEntry records a completed run. The id is a version 7 UUID, which
// is unique and sorts by creation time.
func NewHistoryEntry(result *AnalysisResult, completedAt time.Time) HistoryEntry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return HistoryEntry{
		ID:                      id.String(),
		Timestamp:               completedAt.Format(HistoryTimeLayout),
		TotalCandidatesScreened: result.TotalCandidatesScreened,
		RecommendationsCount:    len(result.Recommendations),
		MarketOutlook:           result.MarketOutlook,
		AnalysisSummary:         result.AnalysisSummary,
	}
}

// DecodeHistory parses a persisted history log. Anything that is not a JSON
// array yields an empty log; array items that are not objects are skipped.
func DecodeHistory(data []byte) []HistoryEntry {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return []HistoryEntry{}
	}
	out := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, HistoryEntry{
			ID:                      StringField(m, "id", ""),
			Timestamp:               StringField(m, "timestamp", ""),
			TotalCandidatesScreened: intField(m, "total_candidates_screened", 0),
			RecommendationsCount:    intField(m, "recommendations_count", 0),
			MarketOutlook:           StringField(m, "market_outlook", ""),
			AnalysisSummary:         StringField(m, "analysis_summary", ""),
		})
	}
	return out
}
