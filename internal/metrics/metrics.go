package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompareRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remitcompare_compare_requests_total",
		Help: "Comparison requests received.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remitcompare_quote_cache_hits_total",
		Help: "Compare calls served from the quote cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remitcompare_quote_cache_misses_total",
		Help: "Compare calls that had to fan out to providers.",
	})

	AdapterOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remitcompare_adapter_outcomes_total",
		Help: "Per-provider fetch outcomes by result.",
	}, []string{"provider", "outcome"})

	FallbackSubstitutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remitcompare_fallback_substitutions_total",
		Help: "Mock quotes substituted for failed providers.",
	}, []string{"provider"})
)
