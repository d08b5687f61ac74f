package metrics

import "github.com/prometheus/client_golang/prometheus"

// RetentionMetrics — метрики очистки устаревших снимков сессий и отправленного outbox.
type RetentionMetrics struct {
	deleted *prometheus.CounterVec
	errors  *prometheus.CounterVec
	runs    prometheus.Counter
}

func NewRetentionMetrics() *RetentionMetrics {
	return NewRetentionMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewRetentionMetricsWithRegisterer(registerer prometheus.Registerer) *RetentionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &RetentionMetrics{
		deleted: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_retention_deleted_total",
			Help: "Total number of records removed by the retention worker",
		}, []string{"target"}),
		errors: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_retention_errors_total",
			Help: "Total number of failed retention passes",
		}, []string{"target"}),
		runs: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_retention_runs_total",
			Help: "Total number of retention passes",
		}),
	}
}

func (m *RetentionMetrics) RecordRun() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

// RecordDeleted учитывает удалённые записи; target — snapshots или outbox.
func (m *RetentionMetrics) RecordDeleted(target string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.WithLabelValues(target).Add(float64(n))
}

func (m *RetentionMetrics) RecordError(target string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(target).Inc()
}
