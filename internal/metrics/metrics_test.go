package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	_, m := NewRegistry()

	m.Mutation("toggle_payment", OutcomeOK)
	m.Mutation("toggle_payment", OutcomeOK)
	m.Mutation("add_service", OutcomeRejected)
	m.Rollback("toggle_service_member")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("toggle_payment", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("add_service", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollbacks.WithLabelValues("toggle_service_member")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Mutation("x", OutcomeOK)
		m.Rollback("x")
		m.ObserveStoreCall("x", time.Now())
	})
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	_, m := NewRegistry()
	m.ObserveStoreCall("list_members", time.Now())
	m.Mutation("add_member", OutcomeOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `streamsplit_mutations_total{op="add_member",outcome="ok"} 1`)
	assert.Contains(t, string(body), "streamsplit_store_call_seconds_bucket")
}
