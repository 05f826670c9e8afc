package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"multibagger/models"
)

// Prompter asks for the screening criteria that were not given as flags
type Prompter interface {
	Sectors() ([]string, error)
	MarketCap() (models.MarketCapTier, error)
	RiskTolerance() (string, error)
}

type surveyPrompter struct{}

// Sectors prompts for one or more sectors
func (surveyPrompter) Sectors() ([]string, error) {
	var sectors []string
	prompt := &survey.MultiSelect{
		Message: "Select sectors to screen:",
		Options: models.Sectors,
		Help:    "Use space to select, enter to confirm.",
	}
	if err := survey.AskOne(prompt, &sectors, survey.WithValidator(survey.MinItems(1))); err != nil {
		return nil, err
	}
	return sectors, nil
}

// MarketCap prompts for the market capitalisation band
func (surveyPrompter) MarketCap() (models.MarketCapTier, error) {
	var idx int
	prompt := &survey.Select{
		Message: "Market cap range:",
		Options: models.MarketCapLabels(),
		Default: models.DefaultMarketCap.Label(),
	}
	if err := survey.AskOne(prompt, &idx); err != nil {
		return models.DefaultMarketCap, err
	}
	return models.MarketCapTier(idx), nil
}

// RiskTolerance prompts for the risk tolerance
func (surveyPrompter) RiskTolerance() (string, error) {
	var risk string
	prompt := &survey.Select{
		Message: "Risk tolerance:",
		Options: models.RiskTolerances,
		Default: models.RiskModerate,
	}
	if err := survey.AskOne(prompt, &risk); err != nil {
		return "", err
	}
	return risk, nil
}

var marketCapNames = map[string]models.MarketCapTier{
	"micro": models.MarketCapMicro,
	"small": models.MarketCapSmall,
	"mid":   models.MarketCapMid,
	"large": models.MarketCapLarge,
}

// parseMarketCap accepts a band name such as "small"
func parseMarketCap(name string) (models.MarketCapTier, error) {
	if t, ok := marketCapNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return models.DefaultMarketCap, fmt.Errorf("invalid market cap %q (use micro, small, mid or large)", name)
}

// parseRisk matches a risk tolerance case-insensitively
func parseRisk(name string) (string, error) {
	for _, r := range models.RiskTolerances {
		if strings.EqualFold(r, strings.TrimSpace(name)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid risk tolerance %q (use %s)", name, strings.Join(models.RiskTolerances, ", "))
}

// parseSector matches an offered sector case-insensitively
func parseSector(name string) (string, error) {
	for _, s := range models.Sectors {
		if strings.EqualFold(s, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown sector %q", name)
}
