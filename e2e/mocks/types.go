package mocks

import (
	"multibagger/models"
)

// Task prefixes the mock recognises when deciding how an agent should reply
const (
	analysisTaskPrefix   = "Analyze Indian NSE/BSE"
	alertTaskPrefix      = "Send the following stock recommendations"
	connectionTaskPrefix = "Test connection"
)

// AgentRequest is the body the agent client posts
type AgentRequest struct {
	Task    string `json:"task"`
	AgentID string `json:"agent_id"`
}

// AgentReply is what a mocked agent answers with
type AgentReply struct {
	Status  string `json:"status"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

type agentEnvelope struct {
	Success  bool        `json:"success"`
	Response *AgentReply `json:"response,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type scheduleEnvelope struct {
	Success    bool                  `json:"success"`
	Schedule   *models.Schedule      `json:"schedule,omitempty"`
	Executions []models.ExecutionLog `json:"executions,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// DefaultSchedule is the weekly Monday morning screen
func DefaultSchedule() *models.Schedule {
	next := "2025-02-17T09:00:00+05:30"
	last := "2025-02-10T09:00:00+05:30"
	ok := true
	return &models.Schedule{
		ID:             "weekly-screen",
		IsActive:       true,
		CronExpression: "0 9 * * 1",
		Timezone:       "Asia/Kolkata",
		NextRunTime:    &next,
		LastRunAt:      &last,
		LastRunSuccess: &ok,
	}
}

// DefaultLogs are two past executions, newest first
func DefaultLogs() []models.ExecutionLog {
	return []models.ExecutionLog{
		{ID: "exec-2", ExecutedAt: "2025-02-10T09:00:00+05:30", Success: true, Attempt: 1, MaxAttempts: 3, PayloadMessage: "5 recommendations sent"},
		{ID: "exec-1", ExecutedAt: "2025-02-03T09:00:00+05:30", Success: false, Attempt: 3, MaxAttempts: 3, ErrorMessage: "coordinator timed out"},
	}
}
