package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func waitForHTTPStatus(t *testing.T, url string, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == want
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStartHTTPServerMetrics(t *testing.T) {
	port := mustFreePort(t)

	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)
	metrics.ObserveRegistration("svc-a")
	metrics.SetActiveServices(1)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          fmt.Sprintf("127.0.0.1:%d", port),
			EnableMetrics: true,
			Registry:      registry,
		}, zap.NewNop())
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	waitForHTTPStatus(t, url, http.StatusOK)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "svcreg_registrations_total")
	assert.Contains(t, string(body), "svcreg_active_services 1")

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestStartHTTPServerHealthz(t *testing.T) {
	port := mustFreePort(t)

	tracker := NewHealthTracker()
	beat := tracker.Register("sweep-loop", 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          fmt.Sprintf("127.0.0.1:%d", port),
			EnableHealthz: true,
			Health:        tracker,
		}, zap.NewNop())
	}()

	beat.Beat()
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	waitForHTTPStatus(t, url, http.StatusOK)

	// Missed beats flip the report to degraded.
	waitForHTTPStatus(t, url, http.StatusServiceUnavailable)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "degraded", report.Status)
	assert.Contains(t, report.Stale, "sweep-loop")
}

func TestStartHTTPServerDisabled(t *testing.T) {
	require.NoError(t, StartHTTPServer(context.Background(), HTTPServerOptions{}, nil))
}

func TestHealthTrackerReport(t *testing.T) {
	tracker := NewHealthTracker()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	beat := tracker.Register("sweep-loop", time.Second)
	assert.Equal(t, "ok", tracker.Report().Status)

	now = now.Add(3 * time.Second)
	report := tracker.Report()
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, []string{"sweep-loop"}, report.Stale)

	beat.Beat()
	assert.Equal(t, "ok", tracker.Report().Status)
}
