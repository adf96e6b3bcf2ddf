// Package metrics exports prometheus counters for searches run by the
// bot and the game client.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/domino14/guardtowers/negamax"
)

var (
	// searchTotal counts searches by source and outcome
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardtowers_search_total",
		Help: "Searches by source and outcome",
	}, []string{"source", "outcome"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guardtowers_search_duration_seconds",
		Help:    "Wall time per search",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 8), // 10ms to ~1.3s
	}, []string{"source", "phase"})

	searchNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guardtowers_search_nodes",
		Help:    "Nodes visited per search",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	})

	searchDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guardtowers_search_depth",
		Help:    "Deepest finished iteration per search",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
	})

	ttableCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardtowers_ttable_collisions_total",
		Help: "Transposition table lookups that returned another position's score",
	})
)

// Outcome names how a search ended.
func Outcome(res *negamax.Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Move.IsNoMove():
		return "no_moves"
	case res.WinShortcut:
		return "win_shortcut"
	case res.Fallback:
		return "fallback"
	}
	return "searched"
}

// ObserveSearch records one search. res may be nil if err is set.
func ObserveSearch(source string, res *negamax.Result, err error) {
	searchTotal.WithLabelValues(source, Outcome(res, err)).Inc()
	if err != nil {
		return
	}
	searchDuration.WithLabelValues(source, string(res.Phase)).Observe(res.Elapsed.Seconds())
	searchNodes.Observe(float64(res.NodesVisited))
	searchDepth.Observe(float64(res.ReachedDepth))
	ttableCollisions.Add(float64(res.Cache.Collisions))
}

// Serve exposes /metrics on addr until ctx is done. An empty addr does
// nothing.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("serving-metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
