package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.AuthEvent("login", OutcomeSuccess)
	m.AuthEvent("login", OutcomeSuccess)
	m.AuthEvent("login", OutcomeRejected)
	m.RateLimited("endpoint", "/api/v1/auth/login")
	m.Revoked()
	m.Pruned(3)
	m.Pruned(0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeRejected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateLimited.WithLabelValues("endpoint", "/api/v1/auth/login")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.revocations))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.blacklistPruned))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AuthEvent("login", OutcomeSuccess)
	m.ObserveRequest("GET", "/", "200", 0.1)
	m.InFlightInc()
	m.InFlightDec()
	m.Revoked()
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/v1/auth/login", "200", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/api/v1/auth/login",status="200"} 1`)
}

func TestTwoInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
