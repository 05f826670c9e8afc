package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"multibagger/internal/events"
	"multibagger/models"
	"multibagger/observability"
	"multibagger/services"
)

// ErrBusy is returned when a send or connection test is already in flight
var ErrBusy = errors.New("an alert request is already in flight")

// State of the dispatcher
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Snapshot is a consistent copy of the dispatcher state
type Snapshot struct {
	State             string                `json:"state"`
	ActiveAgent       string                `json:"active_agent,omitempty"`
	Delivery          *models.AlertDelivery `json:"delivery,omitempty"`
	ConnectionStatus  string                `json:"connection_status,omitempty"`
	TestingConnection bool                  `json:"testing_connection"`
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithPublisher announces recorded deliveries
func WithPublisher(p events.Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithPublishTimeout bounds each delivery announcement
func WithPublishTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.publishTimeout = t }
}

// Dispatcher forwards selected recommendations to the messaging channel via
// the alert agent.
//
// Delivery failures are not reported to callers. A failed or malformed reply
// leaves the delivery record unset and is only logged.
type Dispatcher struct {
	agent          services.AgentInvoker
	alertID        string
	publisher      events.Publisher
	publishTimeout time.Duration

	mu               sync.RWMutex
	state            State
	testing          bool
	delivery         *models.AlertDelivery
	connectionStatus string
}

// New creates an idle dispatcher that talks to the agent identified by alertID
func New(agent services.AgentInvoker, alertID string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		agent:          agent,
		alertID:        alertID,
		publisher:      events.Noop{},
		publishTimeout: events.DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Task renders the instruction that carries the selection to the alert agent
func Task(selected []models.Recommendation) (string, error) {
	stocks := make([]models.AlertStock, len(selected))
	for i, rec := range selected {
		stocks[i] = rec.ToAlertStock()
	}
	data, err := json.MarshalIndent(stocks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode selection: %w", err)
	}
	return "Send the following stock recommendations to Teams:\n" + string(data), nil
}

// ConnectionTask renders the connectivity test instruction. Empty ids are sent
// as "default".
func ConnectionTask(teamID, channelID string) string {
	return fmt.Sprintf(
		"Test connection to Teams channel. Team ID: %s. Channel ID: %s. Send a test message confirming connectivity.",
		orDefault(teamID), orDefault(channelID),
	)
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

func (d *Dispatcher) acquire(sending bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateSending || d.testing {
		return ErrBusy
	}
	if sending {
		d.state = StateSending
		d.delivery = nil
	} else {
		d.testing = true
		d.connectionStatus = ""
	}
	return nil
}

// Send delivers selected to the messaging channel. An empty selection does
// nothing. The returned delivery is nil when the agent did not confirm
// delivery; the only error is ErrBusy.
func (d *Dispatcher) Send(ctx context.Context, selected []models.Recommendation) (*models.AlertDelivery, error) {
	metrics := observability.GetMetrics()
	if len(selected) == 0 {
		metrics.RecordAlertDispatch("empty")
		return nil, nil
	}
	if err := d.acquire(true); err != nil {
		return nil, err
	}

	delivery := d.deliver(ctx, selected)

	d.mu.Lock()
	d.state = StateIdle
	d.delivery = delivery
	d.mu.Unlock()

	if delivery == nil {
		metrics.RecordAlertDispatch("ignored")
		return nil, nil
	}
	metrics.RecordAlertDispatch("delivered")
	pubCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	err := d.publisher.PublishAlertDelivered(pubCtx, *delivery)
	cancel()
	if err != nil {
		observability.WithError(err).Warn("alert event not published", "channel", delivery.ChannelName)
	}
	observability.WithAgent(d.alertID).Info("alert delivered",
		"stocks", delivery.StocksIncluded,
		"channel", delivery.ChannelName,
		"status", delivery.DeliveryStatus)
	return delivery, nil
}

func (d *Dispatcher) deliver(ctx context.Context, selected []models.Recommendation) *models.AlertDelivery {
	log := observability.WithAgent(d.alertID)

	task, err := Task(selected)
	if err != nil {
		log.Warn("alert not sent", "error", models.NewLenientFailure("encode selection", err).Error())
		return nil
	}

	resp, err := d.agent.Invoke(ctx, task, d.alertID)
	if err != nil {
		log.Warn("alert delivery failed, ignoring", "error", models.NewLenientFailure("invoke", err).Error())
		return nil
	}
	if !resp.Succeeded() {
		log.Warn("alert agent did not confirm delivery, ignoring", "message", resp.Message())
		return nil
	}

	delivery := models.DecodeAlertDelivery(resp.Result(), len(selected))
	return &delivery
}

// TestConnection sends a connectivity test through the alert agent and
// returns models.ConnectionSuccess or models.ConnectionError.
func (d *Dispatcher) TestConnection(ctx context.Context, teamID, channelID string) (string, error) {
	if err := d.acquire(false); err != nil {
		return "", err
	}

	status := models.ConnectionError
	resp, err := d.agent.Invoke(ctx, ConnectionTask(teamID, channelID), d.alertID)
	switch {
	case err != nil:
		observability.WithAgent(d.alertID).Warn("connection test failed", "error", err)
	case resp.Succeeded():
		status = models.ConnectionSuccess
	default:
		observability.WithAgent(d.alertID).Warn("connection test rejected", "message", resp.Message())
	}

	d.mu.Lock()
	d.testing = false
	d.connectionStatus = status
	d.mu.Unlock()
	return status, nil
}

// Delivery returns the last recorded delivery, or nil
func (d *Dispatcher) Delivery() *models.AlertDelivery {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.delivery == nil {
		return nil
	}
	c := *d.delivery
	return &c
}

// ActiveAgent returns the alert agent id while a request is in flight
func (d *Dispatcher) ActiveAgent() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.activeAgentLocked()
}

func (d *Dispatcher) activeAgentLocked() string {
	if d.state == StateSending || d.testing {
		return d.alertID
	}
	return ""
}

// Snapshot returns the full dispatcher state
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Snapshot{
		State:             d.state.String(),
		ActiveAgent:       d.activeAgentLocked(),
		ConnectionStatus:  d.connectionStatus,
		TestingConnection: d.testing,
	}
	if d.delivery != nil {
		c := *d.delivery
		s.Delivery = &c
	}
	return s
}
