package analysis

import (
	"fmt"
	"slices"
	"strings"

	"multibagger/models"
)

// Criteria are the screening parameters chosen by the user
type Criteria struct {
	Sectors       []string             `json:"sectors"`
	MarketCap     models.MarketCapTier `json:"market_cap"`
	RiskTolerance string               `json:"risk_tolerance"`
}

// DefaultCriteria has no sectors selected, the small-cap band and moderate risk
func DefaultCriteria() Criteria {
	return Criteria{
		Sectors:       []string{},
		MarketCap:     models.DefaultMarketCap,
		RiskTolerance: models.RiskModerate,
	}
}

// ToggleSector selects name if it is not selected and deselects it otherwise.
// Selection order is kept.
func (c *Criteria) ToggleSector(name string) {
	if i := slices.Index(c.Sectors, name); i >= 0 {
		c.Sectors = slices.Delete(slices.Clone(c.Sectors), i, i+1)
		return
	}
	c.Sectors = append(slices.Clone(c.Sectors), name)
}

// Clone returns a copy that shares no slices with c
func (c Criteria) Clone() Criteria {
	c.Sectors = slices.Clone(c.Sectors)
	if c.Sectors == nil {
		c.Sectors = []string{}
	}
	return c
}

func (c Criteria) riskTolerance() string {
	if c.RiskTolerance == "" {
		return models.RiskModerate
	}
	return c.RiskTolerance
}

// Task renders the natural-language instruction sent to the coordinator agent
func (c Criteria) Task() string {
	return fmt.Sprintf(
		"Analyze Indian NSE/BSE listed stocks with the following screening criteria: "+
			"Sectors: %s. Market Cap Range: %s. Risk Tolerance: %s. "+
			"Find multibagger candidates with strong fundamentals, technical momentum, and positive sentiment. "+
			"Focus on promoter holdings, FII/DII activity, and SEBI compliance. "+
			"Rank by composite score and provide detailed buy rationale with entry points in INR.",
		strings.Join(c.Sectors, ", "), c.MarketCap.Label(), c.riskTolerance(),
	)
}
