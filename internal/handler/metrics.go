package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_http_errors_total",
			Help: "Error responses returned by the API, by HTTP status text.",
		},
		[]string{"status"},
	)

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_http_rate_limited_total",
		Help: "Requests rejected by the register rate limiter.",
	})
)
