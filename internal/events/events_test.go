package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multibagger/models"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newTestPublisher(w *recordingWriter) *KafkaPublisher {
	fixed := time.Date(2025, 2, 15, 9, 30, 0, 0, time.UTC)
	return &KafkaPublisher{writer: w, topic: "multibagger.events", now: func() time.Time { return fixed }}
}

func TestPublishAnalysisCompleted(t *testing.T) {
	w := &recordingWriter{}
	p := newTestPublisher(w)

	entry := models.HistoryEntry{ID: "run-1", RecommendationsCount: 5, MarketOutlook: "Bullish"}
	require.NoError(t, p.PublishAnalysisCompleted(context.Background(), entry))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run-1", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, AnalysisCompleted, got.EventType)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, 5, got.Analysis.RecommendationsCount)
	assert.Nil(t, got.Alert)
}

func TestPublishAlertDelivered(t *testing.T) {
	w := &recordingWriter{}
	p := newTestPublisher(w)

	delivery := models.AlertDelivery{DeliveryStatus: "delivered", ChannelName: "Stock Alerts", StocksIncluded: 2}
	require.NoError(t, p.PublishAlertDelivered(context.Background(), delivery))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "Stock Alerts", string(w.msgs[0].Key))
	assert.Contains(t, string(w.msgs[0].Value), `"event_type":"ALERT_DELIVERED"`)
}

func TestPublishWriteError(t *testing.T) {
	p := newTestPublisher(&recordingWriter{err: errors.New("leader not available")})

	err := p.PublishAnalysisCompleted(context.Background(), models.HistoryEntry{ID: "x"})
	assert.ErrorContains(t, err, "leader not available")
	assert.ErrorContains(t, err, AnalysisCompleted)
}

func TestClose(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, newTestPublisher(w).Close())
	assert.True(t, w.closed)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishAnalysisCompleted(context.Background(), models.HistoryEntry{}))
	assert.NoError(t, p.PublishAlertDelivered(context.Background(), models.AlertDelivery{}))
	assert.NoError(t, p.Close())
}
