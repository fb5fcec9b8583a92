package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRescueMetrics(t *testing.T) {
	Attempts.WithLabelValues("not_included").Inc()
	BlocksDropped.Inc()
	FeeBoostUnits.Set(2)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `rescue_attempts_total{outcome="not_included"}`)
	assert.Contains(t, string(body), "rescue_blocks_dropped_total")
	assert.Contains(t, string(body), "rescue_fee_boost_units 2")
}
