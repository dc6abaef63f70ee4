package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordWrites(t *testing.T) {
	m := New()
	m.RecordWrites("orders", "sales", "orders")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Records.WithLabelValues("orders")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Records.WithLabelValues("sales")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordWrites("orders")
		m.OutboxResult("published")
		m.EmailResult("booking-confirmation", "sent")
		m.ClientConnected()
		m.ClientDisconnected()
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.OutboxResult("published")

	rec := httptest.NewRecorder()
	m.Handler(zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `opsboard_outbox_events_total{result="published"} 1`))
}
