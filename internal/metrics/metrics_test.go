package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAction(t *testing.T) {
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("refresh", "failure"))

	ObserveAction("refresh", false)

	after := testutil.ToFloat64(ActionsTotal.WithLabelValues("refresh", "failure"))
	assert.Equal(t, before+1, after)
}

func TestSetRemoteAlive(t *testing.T) {
	SetRemoteAlive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(RemoteAlive))

	SetRemoteAlive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(RemoteAlive))
}

func TestHandlerExposesRemoteMetrics(t *testing.T) {
	ObserveRemoteCommand(OutcomeTimeout, 5*time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kioskpanel_remote_commands_total{outcome="timeout"}`)
}
