package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishReportEvent(t *testing.T) {
	writer := &fakeWriter{}
	producer := newProducer(writer, "powerbi-report-events", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := producer.PublishReportEvent(context.Background(), &models.ReportEvent{
		Type:      models.EventVisualCreated,
		SessionID: "S1",
		ReportID:  "R1",
		Page:      "ReportSection1",
		Visual:    "visual-1",
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "S1", string(msg.Key))
	assert.Equal(t, models.EventVisualCreated, header(msg, "type"))
	assert.Equal(t, "R1", header(msg, "report_id"))
	assert.Empty(t, header(msg, "traceparent"))

	var event models.ReportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "visual-1", event.Visual)
	assert.False(t, event.Timestamp.IsZero())

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}

func TestPublishReportEvent_KeyFallsBackToReport(t *testing.T) {
	writer := &fakeWriter{}
	producer := newProducer(writer, "audit", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	require.NoError(t, producer.PublishReportEvent(context.Background(), &models.ReportEvent{
		Type:     models.EventEmbedTokenIssued,
		ReportID: "R1",
	}))
	assert.Equal(t, "R1", string(writer.messages[0].Key))
}

func TestPublishReportEvent_Errors(t *testing.T) {
	writer := &fakeWriter{err: errors.New("leader not available")}
	producer := newProducer(writer, "audit", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := producer.PublishReportEvent(context.Background(), &models.ReportEvent{Type: models.EventReportSaved})
	assert.EqualError(t, err, "leader not available")

	assert.Error(t, producer.PublishReportEvent(context.Background(), nil))
}

func TestPing_NoBrokers(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestPing_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := Ping(ctx, []string{"127.0.0.1:1"})
	assert.ErrorContains(t, err, "failed to reach kafka brokers")
}
