package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

func withMetrics(registry prometheus.Registerer, next http.Handler) http.Handler {
	requestCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climate",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "total number of http requests",
	}, []string{"code", "method"})
	requestDuration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "climate",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "duration of http requests",
	}, []string{"code", "method"})
	if registry != nil {
		registry.MustRegister(requestCounter, requestDuration)
	}

	return promhttp.InstrumentHandlerCounter(requestCounter,
		promhttp.InstrumentHandlerDuration(requestDuration,
			next,
		),
	)
}
