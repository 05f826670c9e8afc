package models

import (
	"errors"
	"fmt"
)

// ErrMissingRecommendations is returned when the agent result does not carry a
// list-typed recommendations field.
var ErrMissingRecommendations = errors.New("result has no recommendations list")

// AnalysisResult is the full output of one screening run. It is produced
// wholesale by one agent call and replaces the previous result atomically.
type AnalysisResult struct {
	Recommendations         []Recommendation `json:"recommendations"`
	AnalysisSummary         string           `json:"analysis_summary"`
	MarketOutlook           string           `json:"market_outlook"`
	TotalCandidatesScreened int              `json:"total_candidates_screened"`
	AnalysisDate            string           `json:"analysis_date"`
}

// DecodeAnalysisResult interprets the coordinator agent's result payload.
// The payload may be an object or a JSON string. A missing or non-list
// recommendations field is an error; every other field is defaulted.
func DecodeAnalysisResult(payload any) (*AnalysisResult, error) {
	m, err := AsObject(payload)
	if err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}

	items, ok := m[recommendationsPayload].([]any)
	if !ok {
		return nil, ErrMissingRecommendations
	}

	return &AnalysisResult{
		Recommendations:         DecodeRecommendations(items),
		AnalysisSummary:         StringField(m, "analysis_summary", ""),
		MarketOutlook:           StringField(m, "market_outlook", ""),
		TotalCandidatesScreened: intField(m, "total_candidates_screened", 0),
		AnalysisDate:            StringField(m, "analysis_date", ""),
	}, nil
}

// Clone returns a copy that shares no slices with the receiver
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Recommendations = append([]Recommendation(nil), r.Recommendations...)
	return &c
}

// Find returns the recommendation with the given ticker
func (r *AnalysisResult) Find(ticker string) (Recommendation, bool) {
	if r == nil {
		return Recommendation{}, false
	}
	for _, rec := range r.Recommendations {
		if rec.Ticker == ticker {
			return rec, true
		}
	}
	return Recommendation{}, false
}
