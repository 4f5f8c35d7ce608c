package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.5, 1, 5, 10, 20, 50, 100, 200, 500}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "addrapi_requests_total",
		Help: "Total API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "addrapi_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"route"})
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "addrapi_lookups_total",
		Help: "Division lookups by level and result (hit/miss)",
	}, []string{"level", "result"})
	FallbackAddressTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrapi_format_fallback_total",
		Help: "Formatted addresses that resolved no level and returned the fallback",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrapi_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrapi_redis_misses_total",
		Help: "Total redis cache misses",
	})
	GuessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "addrapi_guess_total",
		Help: "IP region guesses by source and result",
	}, []string{"source", "result"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrapi_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
	DatasetNodes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "addrapi_dataset_nodes",
		Help: "Loaded division count by level",
	}, []string{"level"})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDurationMs,
		LookupsTotal,
		FallbackAddressTotal,
		RedisHitsTotal,
		RedisMissesTotal,
		GuessTotal,
		RateLimitedTotal,
		DatasetNodes,
	)
}

// ObserveLookup：记录一次查询命中情况
func ObserveLookup(level string, ok bool) {
	res := "miss"
	if ok {
		res = "hit"
	}
	LookupsTotal.WithLabelValues(level, res).Inc()
}

// Handler：Prometheus 抓取入口
func Handler() http.Handler { return promhttp.Handler() }
