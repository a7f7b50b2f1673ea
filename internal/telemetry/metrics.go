package telemetry

import (
	"time"

	"svcreg/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveRequest(_ string, _ string, _ int, _ time.Duration) {}

func (n *NoopMetrics) ObserveRegistration(_ string) {}

func (n *NoopMetrics) ObserveHeartbeat(_ string, _ bool) {}

func (n *NoopMetrics) ObserveEvictions(_ int) {}

func (n *NoopMetrics) SetActiveServices(_ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
var _ domain.Metrics = (*PrometheusMetrics)(nil)
