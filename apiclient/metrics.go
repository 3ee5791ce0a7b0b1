package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	refresh  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desk",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Requests sent to the contract API by method and status (0 = no response).",
		}, []string{"method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "desk",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Contract API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refresh: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desk",
			Subsystem: "api",
			Name:      "refresh_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *metrics) observe(method string, status int, started time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

func (m *metrics) refreshed(ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.refresh.WithLabelValues(outcome).Inc()
}
