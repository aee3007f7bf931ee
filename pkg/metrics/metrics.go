// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmbedTokensTotal tracks embed config requests by status
	EmbedTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "embed",
			Name:      "tokens_total",
			Help:      "Total number of embed token requests by status",
		},
		[]string{"status"},
	)

	// EmbedTokenDuration tracks the full token exchange
	EmbedTokenDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "embed",
			Name:      "token_duration_seconds",
			Help:      "Duration of embed token issuance in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks outbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// BridgeCallsTotal tracks calls relayed to the host page
	BridgeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "bridge",
			Name:      "calls_total",
			Help:      "Total number of vendor SDK calls relayed over the bridge",
		},
		[]string{"method", "status"},
	)

	// BridgeCallDuration tracks round trips to the host page
	BridgeCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "bridge",
			Name:      "call_duration_seconds",
			Help:      "Duration of bridge calls in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	// ControllerActionsTotal tracks controller commands by outcome
	ControllerActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "controller",
			Name:      "actions_total",
			Help:      "Total number of controller commands by outcome",
		},
		[]string{"action", "status"},
	)

	// ActiveSessions tracks live embed sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "controller",
			Name:      "active_sessions",
			Help:      "Number of live embed sessions",
		},
	)

	// KafkaMessagesPublished tracks audit events published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// AuthTokenRefreshes tracks Azure AD token acquisitions
	AuthTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Total number of access token acquisitions",
		},
		[]string{"source", "status"},
	)

	// RedisOperationDuration tracks Redis operation duration
	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis operations in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"operation"},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// StatusOf maps an error to a status label
func StatusOf(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// RecordEmbedToken records an embed token request
func RecordEmbedToken(err error, durationSeconds float64) {
	EmbedTokensTotal.WithLabelValues(StatusOf(err)).Inc()
	EmbedTokenDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an outbound HTTP request metric
func RecordHTTPRequest(method, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordBridgeCall records a relayed vendor call
func RecordBridgeCall(method string, err error, durationSeconds float64) {
	BridgeCallsTotal.WithLabelValues(method, StatusOf(err)).Inc()
	BridgeCallDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordAction records a controller command
func RecordAction(action string, err error) {
	ControllerActionsTotal.WithLabelValues(action, StatusOf(err)).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic string, err error, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, StatusOf(err)).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}

// RecordTokenRefresh records an access token acquisition from source (cache or credential)
func RecordTokenRefresh(source string, err error) {
	AuthTokenRefreshes.WithLabelValues(source, StatusOf(err)).Inc()
}
