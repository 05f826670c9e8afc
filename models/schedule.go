package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lnquy/cron"
)

// Schedule mirrors the external recurring job that re-runs the screening
type Schedule struct {
	ID             string  `json:"id"`
	IsActive       bool    `json:"is_active"`
	CronExpression string  `json:"cron_expression"`
	Timezone       string  `json:"timezone"`
	NextRunTime    *string `json:"next_run_time,omitempty"`
	LastRunAt      *string `json:"last_run_at,omitempty"`
	LastRunSuccess *bool   `json:"last_run_success,omitempty"`
}

// DecodeSchedule converts a scheduler payload into a Schedule
func DecodeSchedule(payload any) (*Schedule, error) {
	m, err := AsObject(payload)
	if err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return &Schedule{
		ID:             StringField(m, "id", ""),
		IsActive:       BoolField(m, "is_active", false),
		CronExpression: StringField(m, "cron_expression", ""),
		Timezone:       StringField(m, "timezone", "UTC"),
		NextRunTime:    optionalString(m, "next_run_time"),
		LastRunAt:      optionalString(m, "last_run_at"),
		LastRunSuccess: optionalBool(m, "last_run_success"),
	}, nil
}

// Description renders the cron expression in prose
func (s *Schedule) Description() string {
	return DescribeCron(s.CronExpression)
}

// ExecutionLog is one past trigger attempt of the schedule
type ExecutionLog struct {
	ID             string `json:"id,omitempty"`
	ExecutedAt     string `json:"executed_at"`
	Success        bool   `json:"success"`
	Attempt        int    `json:"attempt"`
	MaxAttempts    int    `json:"max_attempts"`
	ErrorMessage   string `json:"error_message,omitempty"`
	PayloadMessage string `json:"payload_message,omitempty"`
}

// Detail returns the error message, or the payload message when there is none
func (l ExecutionLog) Detail() string {
	if l.ErrorMessage != "" {
		return l.ErrorMessage
	}
	return l.PayloadMessage
}

// DecodeExecutionLogs converts a scheduler executions list. Items that are not
// objects are skipped.
func DecodeExecutionLogs(items []any) []ExecutionLog {
	out := make([]ExecutionLog, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, ExecutionLog{
			ID:             StringField(m, "id", ""),
			ExecutedAt:     StringField(m, "executed_at", ""),
			Success:        BoolField(m, "success", false),
			Attempt:        intField(m, "attempt", 1),
			MaxAttempts:    intField(m, "max_attempts", 1),
			ErrorMessage:   StringField(m, "error_message", ""),
			PayloadMessage: StringField(m, "payload_message", ""),
		})
	}
	return out
}

var cronDescriptor = sync.OnceValues(func() (*cron.ExpressionDescriptor, error) {
	return cron.NewDescriptor(cron.Use24HourTimeFormat(true))
})

// DescribeCron renders a cron expression in English prose, for example
// "0 9 * * 1" becomes "At 09:00, only on Monday". Expressions that cannot be
// described are returned unchanged.
func DescribeCron(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return PlaceholderNA
	}
	d, err := cronDescriptor()
	if err != nil {
		return expr
	}
	desc, err := d.ToDescription(expr, cron.Locale_en)
	if err != nil || desc == "" {
		return expr
	}
	return desc
}
