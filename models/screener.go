package models

import "slices"

// Sectors offered for screening, in display order
var Sectors = []string{
	"IT Services", "Pharma", "BFSI", "Auto", "FMCG",
	"Metals", "Infrastructure", "Chemicals", "Textiles", "Defence",
}

// MarketCapTier indexes the market capitalisation bands
type MarketCapTier int

const (
	MarketCapMicro MarketCapTier = iota
	MarketCapSmall
	MarketCapMid
	MarketCapLarge
)

// DefaultMarketCap is used when no tier is chosen
const DefaultMarketCap = MarketCapSmall

var marketCapLabels = map[MarketCapTier]string{
	MarketCapMicro: "Micro (below 500 Cr)",
	MarketCapSmall: "Small (500-5,000 Cr)",
	MarketCapMid:   "Mid (5,000-20,000 Cr)",
	MarketCapLarge: "Large (20,000 Cr+)",
}

// Label resolves the tier to its display label; unknown tiers resolve to the
// small-cap band.
func (t MarketCapTier) Label() string {
	if l, ok := marketCapLabels[t]; ok {
		return l
	}
	return marketCapLabels[DefaultMarketCap]
}

// Valid reports whether t is a known tier
func (t MarketCapTier) Valid() bool {
	_, ok := marketCapLabels[t]
	return ok
}

// MarketCapLabels returns the labels in tier order
func MarketCapLabels() []string {
	return []string{
		marketCapLabels[MarketCapMicro],
		marketCapLabels[MarketCapSmall],
		marketCapLabels[MarketCapMid],
		marketCapLabels[MarketCapLarge],
	}
}

// Risk tolerances
const (
	RiskConservative = "Conservative"
	RiskModerate     = "Moderate"
	RiskAggressive   = "Aggressive"
)

// RiskTolerances lists the accepted risk tolerances
var RiskTolerances = []string{RiskConservative, RiskModerate, RiskAggressive}

// IsSector reports whether name is one of the offered sectors
func IsSector(name string) bool {
	return slices.Contains(Sectors, name)
}

// IsRiskTolerance reports whether r is an accepted risk tolerance
func IsRiskTolerance(r string) bool {
	return slices.Contains(RiskTolerances, r)
}
