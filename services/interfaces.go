package services

import (
	"context"

	"multibagger/models"
)

// AgentInvoker sends a natural-language task to an agent
type AgentInvoker interface {
	Invoke(ctx context.Context, task, agentID string) (*AgentResponse, error)
}

// ScheduleService operates on one job of the external scheduler
type ScheduleService interface {
	Get(ctx context.Context, id string) (*models.Schedule, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	TriggerNow(ctx context.Context, id string) error
	Logs(ctx context.Context, id string, limit int) ([]models.ExecutionLog, error)
}

// Compile-time interface verification
var _ AgentInvoker = (*AgentClient)(nil)
var _ ScheduleService = (*ScheduleClient)(nil)
