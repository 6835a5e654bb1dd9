package fetcher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scipunch/tvfeed/fetcher/types"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvfeed_fetch_total",
		Help: "Feed fetches by outcome (ok or failure kind)",
	}, []string{"outcome"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tvfeed_fetch_duration_seconds",
		Help:    "Wall time of a feed fetch including retries",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
	})
)

const outcomeOK = "ok"

type instrumented struct {
	next types.Fetcher
}

// Instrument records outcome counts and latency for every fetch.
func Instrument(f types.Fetcher) types.Fetcher {
	return &instrumented{next: f}
}

func (i *instrumented) Fetch(ctx context.Context, req types.Request) ([]byte, error) {
	start := time.Now()
	data, err := i.next.Fetch(ctx, req)
	fetchDuration.Observe(time.Since(start).Seconds())

	outcome := outcomeOK
	if err != nil {
		outcome = Classify(err)
	}
	fetchTotal.WithLabelValues(outcome).Inc()
	return data, err
}
