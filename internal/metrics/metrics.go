package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics counts login, refresh and logout attempts by outcome.
type AuthMetrics struct {
	operations *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) (*AuthMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "profilehub",
		Name:      "auth_operations_total",
		Help:      "Authentication operations by operation and outcome.",
	}, []string{"operation", "outcome"})
	if err := reg.Register(operations); err != nil {
		return nil, err
	}
	return &AuthMetrics{operations: operations}, nil
}

func (m *AuthMetrics) ObserveAuth(operation string, outcome string) {
	m.operations.WithLabelValues(operation, outcome).Inc()
}
