package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	requestDuration *prometheus.HistogramVec
	registrations   *prometheus.CounterVec
	heartbeats      *prometheus.CounterVec
	evictions       prometheus.Counter
	activeServices  prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svcreg_http_request_duration_seconds",
				Help:    "Duration of registry API requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svcreg_registrations_total",
				Help: "Total number of service registrations",
			},
			[]string{"service"},
		),
		heartbeats: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svcreg_heartbeats_total",
				Help: "Total number of heartbeats received",
			},
			[]string{"service", "result"},
		),
		evictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "svcreg_evictions_total",
				Help: "Total number of records evicted by the staleness sweep",
			},
		),
		activeServices: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "svcreg_active_services",
				Help: "Current number of registered services",
			},
		),
	}
}

func (m *PrometheusMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) ObserveRegistration(name string) {
	m.registrations.WithLabelValues(name).Inc()
}

func (m *PrometheusMetrics) ObserveHeartbeat(name string, ok bool) {
	result := "ok"
	if !ok {
		result = "unknown_service"
	}
	m.heartbeats.WithLabelValues(name, result).Inc()
}

func (m *PrometheusMetrics) ObserveEvictions(count int) {
	m.evictions.Add(float64(count))
}

func (m *PrometheusMetrics) SetActiveServices(count int) {
	m.activeServices.Set(float64(count))
}
