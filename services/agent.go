package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"multibagger/models"
	"multibagger/observability"
)

// ErrTransport marks failures to reach a remote collaborator or read its reply
var ErrTransport = errors.New("transport failure")

// StatusSuccess is the payload status reported by a successful agent run
const StatusSuccess = "success"

// AgentRequest is the body posted to the agent endpoint
type AgentRequest struct {
	Task    string `json:"task"`
	AgentID string `json:"agent_id"`
}

// AgentResponse is the envelope returned by the agent endpoint
type AgentResponse struct {
	Success  bool          `json:"success"`
	Response *AgentPayload `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// AgentPayload carries the agent's status and its context-specific result
type AgentPayload struct {
	Status  string `json:"status"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether both the envelope and the payload report success
func (r *AgentResponse) Succeeded() bool {
	return r != nil && r.Success && r.Response != nil && r.Response.Status == StatusSuccess
}

// Result returns the opaque result payload, or nil
func (r *AgentResponse) Result() any {
	if r == nil || r.Response == nil {
		return nil
	}
	return r.Response.Result
}

// Message returns the agent's explanation for a non-success response,
// falling back to the envelope's error text
func (r *AgentResponse) Message() string {
	if r == nil {
		return ""
	}
	if r.Response != nil && r.Response.Message != "" {
		return r.Response.Message
	}
	return r.Error
}

// Unstructured reports a reply that claims success but carries no payload
// object
func (r *AgentResponse) Unstructured() bool {
	return r != nil && r.Success && r.Response == nil
}

// AgentClient invokes agents over HTTP. It never retries; callers decide.
type AgentClient struct {
	client   *resty.Client
	breakers *CircuitBreakerRegistry
}

// AgentOption configures an AgentClient
type AgentOption func(*AgentClient)

// WithAgentBreakers sets the circuit breaker registry
func WithAgentBreakers(r *CircuitBreakerRegistry) AgentOption {
	return func(c *AgentClient) {
		c.breakers = r
	}
}

// NewAgentClient creates a client for the agent endpoint at baseURL. A zero
// timeout leaves requests unbounded unless the caller's context says otherwise.
func NewAgentClient(baseURL, apiKey string, timeout time.Duration, opts ...AgentOption) *AgentClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("x-api-key", apiKey)
	}

	c := &AgentClient{
		client:   client,
		breakers: GetGlobalRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke sends task to the agent identified by agentID. Errors reaching the
// endpoint wrap ErrTransport. A 2xx body that is not a JSON object wraps
// models.ErrMalformedReply. A reply that reached us is returned even when the
// agent reports failure.
func (c *AgentClient) Invoke(ctx context.Context, task, agentID string) (*AgentResponse, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAgent, "invoke")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI(BreakerAgent, "invoke")

	log := observability.WithAgent(agentID)
	log.Debug("invoking agent", "task_length", len(task))

	body, err := Call(ctx, c.breakers, BreakerAgent, func() ([]byte, error) {
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(AgentRequest{Task: task, AgentID: agentID}).
			Post("/api/agent")
		if err != nil {
			return nil, fmt.Errorf("post agent task: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("agent endpoint returned status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAgent, "invoke", errorType(err))
		log.Warn("agent invocation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	result, err := decodeAgentResponse(body)
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAgent, "invoke", "malformed")
		log.Warn("agent reply unreadable", "error", err, "body_length", len(body))
		return nil, fmt.Errorf("agent reply: %w", err)
	}

	log.Debug("agent replied", "success", result.Succeeded())
	return result, nil
}

// decodeAgentResponse reads the envelope field by field so one odd value
// never discards the rest of the reply
func decodeAgentResponse(body []byte) (*AgentResponse, error) {
	m, err := models.DecodeReply(body)
	if err != nil {
		return nil, err
	}

	out := &AgentResponse{
		Success: models.BoolField(m, "success", false),
		Error:   models.StringField(m, "error", ""),
	}
	// anything but an object leaves Response nil
	if payload, ok := m["response"].(map[string]any); ok {
		out.Response = &AgentPayload{
			Status:  models.StringField(payload, "status", ""),
			Result:  payload["result"],
			Message: models.StringField(payload, "message", ""),
		}
	}
	return out, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return "circuit_breaker"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
