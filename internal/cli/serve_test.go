package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/vitalsmon/internal/config"
)

func TestBuildServer_WiresIngestAndMetrics(t *testing.T) {
	store := testStore(t)
	cfg := config.DefaultConfig()
	cmd := &ServeCommand{globals: &GlobalFlags{}, version: "test"}

	srv := cmd.buildServer(cfg, store, zap.NewNop(), prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/metric", "application/json",
		strings.NewReader(`{"metric":"LCP","value":1800,"url":"https://example.com/","connection_speed":4}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/metric/count?metric=LCP")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", strings.TrimSpace(string(body)))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `vitalsmon_ingest_accepted_total{metric="LCP"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestBuildServer_HonorsAllowedHosts(t *testing.T) {
	store := testStore(t)
	cfg := config.DefaultConfig()
	cfg.Ingest.AllowedHosts = config.HostList{"example.com"}
	cmd := &ServeCommand{globals: &GlobalFlags{}, version: "test"}

	srv := cmd.buildServer(cfg, store, zap.NewNop(), prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/metric", "application/json",
		strings.NewReader(`{"metric":"LCP","value":1800,"url":"https://elsewhere.test/","connection_speed":4}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
