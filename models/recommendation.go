package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"multibagger/observability"
)

// MissingRank is the rank given to a recommendation the agent did not rank, so
// that it sorts after every ranked entry.
const MissingRank = 99

// Placeholders used when the agent omits a display field
const (
	PlaceholderNA          = "N/A"
	PlaceholderCompany     = "Unknown"
	PlaceholderUpside      = "0%"
	PlaceholderRisk        = "Medium"
	PlaceholderInsider     = "No data available"
	PlaceholderCatalyst    = "No catalyst identified"
	unknownTickerPrefix    = "UNKNOWN-"
	recommendationsPayload = "recommendations"
)

// Recommendation is one screened candidate returned by the coordinator agent.
// Price and percentage fields are display strings and are only parsed
// transiently for sorting.
type Recommendation struct {
	Rank             int     `json:"rank"`
	Ticker           string  `json:"ticker"`
	CompanyName      string  `json:"company_name"`
	Sector           string  `json:"sector"`
	CurrentPrice     string  `json:"current_price"`
	TargetPrice      string  `json:"target_price"`
	UpsidePercentage string  `json:"upside_percentage"`
	CompositeScore   float64 `json:"composite_score"`
	FundamentalScore float64 `json:"fundamental_score"`
	TechnicalScore   float64 `json:"technical_score"`
	SentimentScore   float64 `json:"sentiment_score"`
	RiskLevel        string  `json:"risk_level"`
	MarketCap        string  `json:"market_cap"`
	PERatio          string  `json:"pe_ratio"`
	RevenueGrowth    string  `json:"revenue_growth"`
	BuyRationale     string  `json:"buy_rationale"`
	KeyRisks         string  `json:"key_risks"`
	EntryPoint       string  `json:"entry_point"`
	StopLoss         string  `json:"stop_loss"`
	InsiderActivity  string  `json:"insider_activity"`
	Catalyst         string  `json:"catalyst"`
}

// DecodeRecommendation converts one loosely typed agent object into a
// Recommendation, substituting a placeholder for every missing field.
func DecodeRecommendation(m map[string]any) Recommendation {
	return Recommendation{
		Rank:             intField(m, "rank", MissingRank),
		Ticker:           strings.TrimSpace(StringField(m, "ticker", "")),
		CompanyName:      StringField(m, "company_name", PlaceholderCompany),
		Sector:           StringField(m, "sector", PlaceholderNA),
		CurrentPrice:     StringField(m, "current_price", PlaceholderNA),
		TargetPrice:      StringField(m, "target_price", PlaceholderNA),
		UpsidePercentage: StringField(m, "upside_percentage", PlaceholderUpside),
		CompositeScore:   floatField(m, "composite_score", 0),
		FundamentalScore: floatField(m, "fundamental_score", 0),
		TechnicalScore:   floatField(m, "technical_score", 0),
		SentimentScore:   floatField(m, "sentiment_score", 0),
		RiskLevel:        StringField(m, "risk_level", PlaceholderRisk),
		MarketCap:        StringField(m, "market_cap", PlaceholderNA),
		PERatio:          StringField(m, "pe_ratio", PlaceholderNA),
		RevenueGrowth:    StringField(m, "revenue_growth", PlaceholderNA),
		BuyRationale:     StringField(m, "buy_rationale", ""),
		KeyRisks:         StringField(m, "key_risks", ""),
		EntryPoint:       StringField(m, "entry_point", PlaceholderNA),
		StopLoss:         StringField(m, "stop_loss", PlaceholderNA),
		InsiderActivity:  StringField(m, "insider_activity", PlaceholderInsider),
		Catalyst:         StringField(m, "catalyst", PlaceholderCatalyst),
	}
}

// DecodeRecommendations decodes a recommendations list. Entries that are not
// objects are skipped, entries without a ticker get a positional
// placeholder, and repeated tickers keep only their first occurrence so the
// ticker stays a unique key within the result.
func DecodeRecommendations(items []any) []Recommendation {
	out := make([]Recommendation, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			observability.Warn("skipping malformed recommendation", "index", i, "type", fmt.Sprintf("%T", item))
			continue
		}
		rec := DecodeRecommendation(m)
		if rec.Ticker == "" {
			rec.Ticker = fmt.Sprintf("%s%d", unknownTickerPrefix, i+1)
		}
		if _, dup := seen[rec.Ticker]; dup {
			observability.WithTicker(rec.Ticker).Warn("dropping duplicate recommendation", "index", i)
			continue
		}
		seen[rec.Ticker] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// Upside returns the parsed upside percentage, or 0 when unparseable
func (r Recommendation) Upside() float64 {
	return ParsePercent(r.UpsidePercentage)
}

// RiskOrder returns the sort position of the risk level
func (r Recommendation) RiskOrder() int {
	return RiskOrder(r.RiskLevel)
}

// AlertStock is the reduced projection of a recommendation sent to the
// messaging channel.
type AlertStock struct {
	Ticker           string  `json:"ticker"`
	CompanyName      string  `json:"company_name"`
	CompositeScore   float64 `json:"composite_score"`
	RiskLevel        string  `json:"risk_level"`
	CurrentPrice     string  `json:"current_price"`
	TargetPrice      string  `json:"target_price"`
	UpsidePercentage string  `json:"upside_percentage"`
	BuyRationale     string  `json:"buy_rationale"`
	EntryPoint       string  `json:"entry_point"`
	StopLoss         string  `json:"stop_loss"`
}

// ToAlertStock projects the recommendation for alert delivery
func (r Recommendation) ToAlertStock() AlertStock {
	return AlertStock{
		Ticker:           r.Ticker,
		CompanyName:      r.CompanyName,
		CompositeScore:   r.CompositeScore,
		RiskLevel:        r.RiskLevel,
		CurrentPrice:     r.CurrentPrice,
		TargetPrice:      r.TargetPrice,
		UpsidePercentage: r.UpsidePercentage,
		BuyRationale:     r.BuyRationale,
		EntryPoint:       r.EntryPoint,
		StopLoss:         r.StopLoss,
	}
}

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?`)

// ParsePercent parses a display percentage such as "+40.9%" by removing the
// first percent and plus signs and reading the leading number. Anything
// unparseable, such as "N/A", yields 0.
func ParsePercent(s string) float64 {
	s = strings.Replace(s, "%", "", 1)
	s = strings.Replace(s, "+", "", 1)
	s = strings.TrimSpace(s)

	num := leadingNumber.FindString(s)
	if num == "" {
		return 0
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// RiskOrder ranks risk levels low < medium < high; anything unrecognized
// sorts as medium.
func RiskOrder(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return 1
	case "high":
		return 3
	default:
		return 2
	}
}
