package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/mq"
)

func TestLabels_toPrometheusLabels(t *testing.T) {
	tests := []struct {
		name     string
		labels   Labels
		expected prometheus.Labels
	}{
		{
			name:     "empty labels",
			labels:   Labels{},
			expected: prometheus.Labels{},
		},
		{
			name: "all labels set",
			labels: Labels{
				Instance:    "agent-1",
				Environment: "ci",
				Region:      "eu-west-1",
			},
			expected: prometheus.Labels{
				"instance_name": "agent-1",
				"environment":   "ci",
				"region":        "eu-west-1",
			},
		},
		{
			name:   "partial labels",
			labels: Labels{Environment: "staging"},
			expected: prometheus.Labels{
				"environment": "staging",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.labels.toPrometheusLabels())
		})
	}
}

func TestNewWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewWithLabels(reg, Labels{Instance: "agent-1"})
	require.NoError(t, err)

	m.ActiveConnections(2)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "mqlibrary_mq_active_connections" {
			continue
		}
		found = true
		require.NotEmpty(t, mf.GetMetric())
		labelMap := make(map[string]string)
		for _, label := range mf.GetMetric()[0].GetLabel() {
			labelMap[label.GetName()] = label.GetValue()
		}
		require.Equal(t, "agent-1", labelMap["instance_name"])
	}
	require.True(t, found)
}

func TestNew_RegistrationError(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	// Second registration should fail (duplicate metrics)
	m, err := New(reg)
	require.Nil(t, m, "expected nil metrics on duplicate registration")

	var alreadyRegistered prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &alreadyRegistered)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.KeywordFinished(t.Context(), keywords.Call{Keyword: keywords.KeywordPut})
	})
	require.NotPanics(t, func() {
		m.ActiveConnections(1)
	})
	require.NotPanics(t, func() {
		m.MessagesTransferred(keywords.OperationGet, 3)
	})
}

func TestMetrics_KeywordFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	ctx := t.Context()

	m.KeywordFinished(ctx, keywords.Call{Keyword: keywords.KeywordPut, Duration: 20 * time.Millisecond})
	m.KeywordFinished(ctx, keywords.Call{Keyword: keywords.KeywordPut, Duration: 10 * time.Millisecond})
	m.KeywordFinished(ctx, keywords.Call{
		Keyword: keywords.KeywordGet,
		Err:     &mq.QueueError{Op: "get", Queue: "Q", Err: mq.NewError("MQGET", mq.RCGetInhibited)},
	})
	m.KeywordFinished(ctx, keywords.Call{Keyword: keywords.KeywordClear, Err: errors.New("boom")})

	require.Equal(t, float64(2), testutil.ToFloat64(m.keywordCalls.WithLabelValues(keywords.KeywordPut, StatusSuccess)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.keywordCalls.WithLabelValues(keywords.KeywordGet, StatusError)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.keywordErrors.WithLabelValues("MQRC_GET_INHIBITED")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.keywordErrors.WithLabelValues("none")))
	require.Equal(t, 3, testutil.CollectAndCount(m.keywordDuration))
}

func TestMetrics_UnknownKeywordLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.KeywordFinished(t.Context(), keywords.Call{
		Keyword: "Something Random",
		Err:     &keywords.UnknownKeywordError{Name: "Something Random"},
	})

	require.Equal(t, float64(1), testutil.ToFloat64(m.keywordCalls.WithLabelValues(UnknownKeyword, StatusError)))
	require.Equal(t, 1, testutil.CollectAndCount(m.keywordCalls))
}

func TestMetrics_Recorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ActiveConnections(3)
	m.ActiveConnections(1)
	require.Equal(t, float64(1), testutil.ToFloat64(m.activeConnections))

	m.MessagesTransferred(keywords.OperationPut, 2)
	m.MessagesTransferred(keywords.OperationPut, 1)
	m.MessagesTransferred(keywords.OperationClear, 0)
	require.Equal(t, float64(3), testutil.ToFloat64(m.messagesTransferred.WithLabelValues(keywords.OperationPut)))
	require.Equal(t, 1, testutil.CollectAndCount(m.messagesTransferred))
}
