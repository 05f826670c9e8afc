package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Alert risk thresholds
const (
	RiskThresholdAll    = "all"
	RiskThresholdLow    = "low"
	RiskThresholdMedium = "medium"
	RiskThresholdHigh   = "high"
)

// ErrInvalidPreferences wraps every validation problem
var ErrInvalidPreferences = errors.New("invalid preferences")

// messaging ids are GUIDs or thread ids such as 19:abc@thread.tacv2
var idPattern = regexp.MustCompile(`^[A-Za-z0-9:@._-]*$`)

// Validate checks prefs before they are stored
func Validate(prefs Preferences) error {
	var problems []string

	if len(prefs.TeamID) > 128 || !idPattern.MatchString(prefs.TeamID) {
		problems = append(problems, "team_id contains unsupported characters")
	}
	if len(prefs.ChannelID) > 128 || !idPattern.MatchString(prefs.ChannelID) {
		problems = append(problems, "channel_id contains unsupported characters")
	}

	switch strings.ToLower(prefs.AlertRiskThreshold) {
	case RiskThresholdAll, RiskThresholdLow, RiskThresholdMedium, RiskThresholdHigh:
	default:
		problems = append(problems, fmt.Sprintf("alert_risk_threshold %q must be all, low, medium or high", prefs.AlertRiskThreshold))
	}

	if prefs.AlertMinScore < 0 || prefs.AlertMinScore > 10 {
		problems = append(problems, fmt.Sprintf("alert_min_score %.1f must be between 0 and 10", prefs.AlertMinScore))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPreferences, strings.Join(problems, "; "))
	}
	return nil
}
