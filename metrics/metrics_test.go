package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := New()
	m.RequestsTotal.WithLabelValues("/v0/prove", "200").Inc()
	m.Groth16TimeSecs.Observe(2.5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "prover_requests_total")
	require.Contains(t, string(body), "prover_groth16_time_secs")

	// Unknown paths on the metrics listener are not served.
	resp404, err := srv.Client().Get(srv.URL + "/other")
	require.NoError(t, err)
	resp404.Body.Close()
	require.Equal(t, 404, resp404.StatusCode)
}

func TestIndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	require.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
