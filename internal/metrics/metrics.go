package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingopal_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingopal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CoinAwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingopal_coin_awards_total",
			Help: "Coin award outcomes, labeled by result (awarded or deny reason).",
		},
		[]string{"result"},
	)

	CoinsAwardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopal_coins_awarded_total",
			Help: "Total coins paid out across all users.",
		},
	)

	RegenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingopal_regenerations_total",
			Help: "Learning content regenerations, labeled by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	RateLimitRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopal_ratelimit_rejections_total",
			Help: "Requests rejected by the per-user generation rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CoinAwardsTotal,
		CoinsAwardedTotal,
		RegenerationsTotal,
		RateLimitRejectionsTotal,
	)
}
