package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncIssued("visitor")
	m.IncIssued("visitor")
	m.IncFailure("cab", "persistence")
	m.IncGateRejection("not_found")
	m.ObserveSubmit(20 * time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.PassesIssued.WithLabelValues("visitor")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionFailures.WithLabelValues("cab", "persistence")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GateRejections.WithLabelValues("not_found")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.IncIssued("visitor")
		m.IncFailure("visitor", "validation")
		m.IncGateRejection("malformed")
		m.ObserveSubmit(time.Second)
	})
}
