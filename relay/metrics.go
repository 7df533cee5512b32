package relay

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "chatrelay"

type metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
}

// newMetrics registers the relay collectors on a private registry so that
// several servers can coexist in one process.
func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Chat requests handled, by response status code.",
		}, []string{"code"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "provider_duration_seconds",
			Help:      "Latency of completion provider calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.providerDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *metrics) observeRequest(status int) {
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *metrics) observeProvider(err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.providerDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
