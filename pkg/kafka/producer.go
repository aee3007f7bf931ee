// Package kafka publishes report mutation audit events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config holds Kafka configuration
type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes report events to the audit topic
type Producer struct {
	writer messageWriter
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		// Dev clusters may not have the topic yet.
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, cfg.Topic, logger)
}

func newProducer(writer messageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		topic:  topic,
	}
}

// Ping dials each broker until one answers
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	var lastErr error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("failed to reach kafka brokers: %w", lastErr)
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishReportEvent publishes one audit event keyed by session so a session's
// events stay ordered on one partition.
func (p *Producer) PublishReportEvent(ctx context.Context, event *models.ReportEvent) (err error) {
	if event == nil {
		return fmt.Errorf("report event is nil")
	}

	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishReportEvent",
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
		attribute.String("event.type", event.Type),
	)
	start := time.Now()
	defer func() {
		metrics.RecordKafkaPublish(p.topic, err, time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.TraceID = tracing.TraceID(ctx)
	event.SpanID = tracing.SpanID(ctx)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal report event: %w", err)
	}

	key := event.SessionID
	if key == "" {
		key = event.ReportID
	}

	headers := []kafka.Header{
		{Key: "type", Value: []byte(event.Type)},
		{Key: "session_id", Value: []byte(event.SessionID)},
		{Key: "report_id", Value: []byte(event.ReportID)},
	}
	if traceparent := tracing.TraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}
	if tracestate := tracing.TraceState(ctx); tracestate != "" {
		headers = append(headers, kafka.Header{Key: "tracestate", Value: []byte(tracestate)})
	}

	if err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}); err != nil {
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish to Kafka topic %s", p.topic)
		return err
	}

	p.logger.WithContext(ctx).Debugf("Published %s event to Kafka: session=%s report=%s", event.Type, event.SessionID, event.ReportID)
	return nil
}
