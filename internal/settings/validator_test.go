package settings

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		prefs   Preferences
		wantErr string
	}{
		{name: "defaults", prefs: DefaultPreferences()},
		{name: "thread channel id", prefs: Preferences{TeamID: "a1b2-c3", ChannelID: "19:abc@thread.tacv2", AlertRiskThreshold: "Medium", AlertMinScore: 6}},
		{name: "empty ids allowed", prefs: Preferences{AlertRiskThreshold: RiskThresholdLow, AlertMinScore: 0}},
		{name: "bad team id", prefs: Preferences{TeamID: "team id", AlertRiskThreshold: RiskThresholdAll}, wantErr: "team_id"},
		{name: "bad channel id", prefs: Preferences{ChannelID: "<script>", AlertRiskThreshold: RiskThresholdAll}, wantErr: "channel_id"},
		{name: "long channel id", prefs: Preferences{ChannelID: strings.Repeat("a", 129), AlertRiskThreshold: RiskThresholdAll}, wantErr: "channel_id"},
		{name: "unknown threshold", prefs: Preferences{AlertRiskThreshold: "extreme"}, wantErr: "alert_risk_threshold"},
		{name: "empty threshold", prefs: Preferences{}, wantErr: "alert_risk_threshold"},
		{name: "negative score", prefs: Preferences{AlertRiskThreshold: RiskThresholdAll, AlertMinScore: -1}, wantErr: "alert_min_score"},
		{name: "score above ten", prefs: Preferences{AlertRiskThreshold: RiskThresholdAll, AlertMinScore: 10.5}, wantErr: "alert_min_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.prefs)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidPreferences) {
				t.Fatalf("Validate() error = %v, want ErrInvalidPreferences", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
