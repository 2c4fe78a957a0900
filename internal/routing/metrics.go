package routing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeHit           = "hit"
	outcomeFound         = "found"
	outcomeEmpty         = "empty"
	outcomeUpstreamError = "upstream_error"
	outcomeInvalid       = "invalid"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_fetches_total",
		Help: "Route fetches by outcome",
	}, []string{"outcome"})

	routeDistanceKm = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_distance_km",
		Help:    "Distance of fetched routes in kilometres",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)

func recordFetch(outcome string) {
	fetchesTotal.WithLabelValues(outcome).Inc()
}
