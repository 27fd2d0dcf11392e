package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScreeningRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_runs_total",
			Help: "Total screening runs",
		})
	ScreeningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screener_run_duration_seconds",
			Help:    "Time to screen every symbol of one request",
			Buckets: prometheus.DefBuckets,
		})
	SymbolsScreened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_symbols_screened_total",
			Help: "Total symbols screened successfully",
		})
	SymbolErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_symbol_errors_total",
			Help: "Total symbols that failed on every provider",
		})
	Fallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_fallbacks_total",
			Help: "Total symbols served by the secondary provider",
		})
	UnscorableQuotes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_unscorable_quotes_total",
			Help: "Quotes excluded because no metric could be computed",
		})

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_fetch_duration_seconds",
			Help:    "Option chain fetch duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_cache_lookups_total",
			Help: "Option chain cache lookups",
		},
		[]string{"backend", "result"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ScreeningRuns,
		ScreeningDuration,
		SymbolsScreened,
		SymbolErrors,
		Fallbacks,
		UnscorableQuotes,
		ProviderLatency,
		CacheLookups,
		APIRequestDuration,
	)
}
