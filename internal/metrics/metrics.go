package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for monitoring a running rescue
var (
	Attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rescue_attempts_total",
		Help: "Bundle attempts by outcome",
	}, []string{"outcome"})

	AttemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rescue_attempt_duration_seconds",
		Help:    "Time from block notification to attempt resolution",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. 32s
	})

	FeeBoostUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rescue_fee_boost_units",
		Help: "Current fee boost added to both fee legs",
	})

	AttemptCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rescue_attempt_count",
		Help: "Current attempt counter (advanced only on non-inclusion)",
	})

	BlocksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rescue_blocks_dropped_total",
		Help: "Block notifications discarded because an attempt was in flight",
	})

	FundingWei = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rescue_funding_wei",
		Help: "Value of the sponsor funding transaction in the last assembled bundle",
	})
)

// Handler serves the default registry on /metrics.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve exposes Handler on addr until ctx ends.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
