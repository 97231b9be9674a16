package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/mq"
)

const (
	Namespace = "mqlibrary"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"

	Keywords = "keywords"
	MQ       = "mq"

	// UnknownKeyword replaces the keyword label of calls to names that match no keyword.
	UnknownKeyword = "unknown"
)

// Labels holds constant labels applied to all metrics.
// These are useful for distinguishing metrics from multiple library servers.
type Labels struct {
	Instance    string // Server instance name (e.g., "robot-agent-1")
	Environment string // Deployment environment (e.g., "ci", "staging")
	Region      string // Cloud region (e.g., "us-east-1", "eu-west-1")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Instance != "" {
		labels["instance_name"] = l.Instance
	}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	return labels
}

// Metrics records keyword and MQ activity. It implements keywords.Observer and
// keywords.Recorder.
type Metrics struct {
	// Keyword metrics
	keywordCalls    *prometheus.CounterVec   // by keyword, status
	keywordDuration *prometheus.HistogramVec // by keyword
	keywordErrors   *prometheus.CounterVec   // by reason

	// MQ metrics
	activeConnections   prometheus.Gauge
	messagesTransferred *prometheus.CounterVec // by operation
}

var (
	_ keywords.Observer = (*Metrics)(nil)
	_ keywords.Recorder = (*Metrics)(nil)
)

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		keywordCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Keywords,
			Name:      "calls_total",
			Help:      "Total number of keyword calls by keyword and status",
		}, []string{"keyword", "status"}),
		keywordDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Keywords,
			Name:      "duration_seconds",
			Help:      "Keyword call duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
		}, []string{"keyword"}),
		keywordErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Keywords,
			Name:      "errors_total",
			Help:      "Total number of failed keyword calls by MQ reason (\"none\" for non-MQ failures)",
		}, []string{"reason"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: MQ,
			Name:      "active_connections",
			Help:      "Number of connected aliases",
		}),
		messagesTransferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: MQ,
			Name:      "messages_total",
			Help:      "Total number of messages by operation (put/get/browse/clear)",
		}, []string{"operation"}),
	}

	err := errors.Join(
		reg.Register(m.keywordCalls),
		reg.Register(m.keywordDuration),
		reg.Register(m.keywordErrors),
		reg.Register(m.activeConnections),
		reg.Register(m.messagesTransferred),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// KeywordFinished records a finished keyword call.
func (m *Metrics) KeywordFinished(_ context.Context, call keywords.Call) {
	if m == nil {
		return
	}
	name := call.Keyword
	var unknown *keywords.UnknownKeywordError
	if errors.As(call.Err, &unknown) {
		// keep arbitrary names out of the label set
		name = UnknownKeyword
	}

	status := StatusSuccess
	if call.Err != nil {
		status = StatusError
		m.keywordErrors.WithLabelValues(errorReason(call.Err)).Inc()
	}
	m.keywordCalls.WithLabelValues(name, status).Inc()
	m.keywordDuration.WithLabelValues(name).Observe(call.Duration.Seconds())
}

// ActiveConnections sets the number of connected aliases.
func (m *Metrics) ActiveConnections(n int) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(n))
}

// MessagesTransferred adds n messages moved by operation.
func (m *Metrics) MessagesTransferred(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.messagesTransferred.WithLabelValues(operation).Add(float64(n))
}

func errorReason(err error) string {
	if rc, ok := mq.ReasonOf(err); ok {
		return rc.String()
	}
	return "none"
}
