package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var probeTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "acctidx_monitoring_probe_total",
	Help: "Counter registered to check /metrics exposition",
})

func TestHandlerServesMetrics(t *testing.T) {
	probeTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "acctidx_monitoring_probe_total 1")
}

func TestHandlerServesPprofIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}

func TestStartStopDebugServer(t *testing.T) {
	srv, err := StartDebugServer("127.0.0.1:0", nil)
	require.NoError(t, err)

	resp, err := http.Get("http://" + srv.Addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, StopDebugServer(ctx, srv))
	require.NoError(t, StopDebugServer(ctx, nil))
}

func TestStartDebugServerBadAddr(t *testing.T) {
	_, err := StartDebugServer("256.0.0.1:bad", nil)
	assert.Error(t, err)
}
