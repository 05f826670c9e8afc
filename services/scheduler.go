package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"multibagger/models"
	"multibagger/observability"
)

// ErrScheduleRejected is returned when the scheduler answers but reports failure
var ErrScheduleRejected = errors.New("scheduler rejected request")

// scheduleEnvelope is the scheduler's reply for every operation
type scheduleEnvelope struct {
	Success    bool
	Schedule   any
	Executions []any
	Error      string
}

// decodeScheduleEnvelope reads the reply field by field. A non-list
// executions field reads as no executions.
func decodeScheduleEnvelope(body []byte) (*scheduleEnvelope, error) {
	m, err := models.DecodeReply(body)
	if err != nil {
		return nil, err
	}
	executions, _ := m["executions"].([]any)
	return &scheduleEnvelope{
		Success:    models.BoolField(m, "success", false),
		Schedule:   m["schedule"],
		Executions: executions,
		Error:      models.StringField(m, "error", ""),
	}, nil
}

// ScheduleClient manages a recurring job on the external scheduler service
type ScheduleClient struct {
	client   *resty.Client
	breakers *CircuitBreakerRegistry
}

// NewScheduleClient creates a client for the scheduler at baseURL. A zero
// timeout leaves requests bounded only by the caller's context.
func NewScheduleClient(baseURL, apiKey string, timeout time.Duration, breakers *CircuitBreakerRegistry) *ScheduleClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("x-api-key", apiKey)
	}
	if breakers == nil {
		breakers = GetGlobalRegistry()
	}
	return &ScheduleClient{client: client, breakers: breakers}
}

// Get fetches the schedule
func (c *ScheduleClient) Get(ctx context.Context, id string) (*models.Schedule, error) {
	env, err := c.do(ctx, "get", resty.MethodGet, id, "", nil)
	if err != nil {
		return nil, err
	}
	s, err := models.DecodeSchedule(env.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScheduleRejected, err)
	}
	return s, nil
}

// Pause deactivates the schedule
func (c *ScheduleClient) Pause(ctx context.Context, id string) error {
	_, err := c.do(ctx, "pause", resty.MethodPost, id, "/pause", nil)
	return err
}

// Resume activates the schedule
func (c *ScheduleClient) Resume(ctx context.Context, id string) error {
	_, err := c.do(ctx, "resume", resty.MethodPost, id, "/resume", nil)
	return err
}

// TriggerNow runs the schedule immediately, outside its cron cadence
func (c *ScheduleClient) TriggerNow(ctx context.Context, id string) error {
	_, err := c.do(ctx, "trigger", resty.MethodPost, id, "/trigger", nil)
	return err
}

// Logs lists the most recent executions, newest first
func (c *ScheduleClient) Logs(ctx context.Context, id string, limit int) ([]models.ExecutionLog, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	env, err := c.do(ctx, "logs", resty.MethodGet, id, "/logs", params)
	if err != nil {
		return nil, err
	}
	return models.DecodeExecutionLogs(env.Executions), nil
}

func (c *ScheduleClient) do(ctx context.Context, op, method, id, suffix string, query map[string]string) (*scheduleEnvelope, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerScheduler, op)
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerScheduler, op)

	body, err := Call(ctx, c.breakers, BreakerScheduler, func() ([]byte, error) {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(query).
			Execute(method, "/api/schedules/"+url.PathEscape(id)+suffix)
		if err != nil {
			return nil, fmt.Errorf("%s schedule: %w", op, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("scheduler returned status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		metrics.RecordExternalAPIError(BreakerScheduler, op, errorType(err))
		observability.Warn("scheduler call failed", "operation", op, "schedule_id", id, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	env, err := decodeScheduleEnvelope(body)
	if err != nil {
		metrics.RecordExternalAPIError(BreakerScheduler, op, "malformed")
		observability.Warn("scheduler reply unreadable", "operation", op, "schedule_id", id, "error", err)
		return nil, fmt.Errorf("%s schedule reply: %w", op, err)
	}

	if !env.Success {
		metrics.RecordExternalAPIError(BreakerScheduler, op, "rejected")
		msg := env.Error
		if msg == "" {
			msg = "no reason given"
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrScheduleRejected, op, msg)
	}
	return env, nil
}
