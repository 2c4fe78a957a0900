package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeHit           = "hit"
	outcomeFound         = "miss_found"
	outcomeNotFound      = "not_found"
	outcomeInvalid       = "invalid"
	outcomeUpstreamError = "upstream_error"
)

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "geocode_lookups_total",
	Help: "Geocode lookups by outcome",
}, []string{"outcome"})

func recordLookup(outcome string) {
	lookupsTotal.WithLabelValues(outcome).Inc()
}
