package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalyticsMetrics — метрики конвейера аналитики (tracker → outbox → kafka → sink).
type AnalyticsMetrics struct {
	tracked   *prometheus.CounterVec
	dropped   prometheus.Counter
	enqueued  prometheus.Counter
	failed    prometheus.Counter
	stored    *prometheus.CounterVec
	queueSize prometheus.Gauge
}

// NewAnalyticsMetrics регистрирует метрики в глобальном registry.
func NewAnalyticsMetrics() *AnalyticsMetrics {
	return NewAnalyticsMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewAnalyticsMetricsWithRegisterer регистрирует метрики в переданном registry.
func NewAnalyticsMetricsWithRegisterer(registerer prometheus.Registerer) *AnalyticsMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &AnalyticsMetrics{
		tracked: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_analytics_tracked_total",
			Help: "Total number of analytics events accepted by the tracker",
		}, []string{"event_type"}),
		dropped: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_analytics_dropped_total",
			Help: "Total number of analytics events dropped because the buffer was full",
		}),
		enqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_analytics_enqueued_total",
			Help: "Total number of analytics events written to the outbox",
		}),
		failed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_analytics_enqueue_errors_total",
			Help: "Total number of analytics events that could not be written to the outbox",
		}),
		stored: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_analytics_sink_events_total",
			Help: "Total number of analytics events consumed by the sink grouped by result",
		}, []string{"result"}),
		queueSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_analytics_buffer_size",
			Help: "Current number of buffered analytics events",
		}),
	}
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

func (m *AnalyticsMetrics) RecordTracked(eventType string) {
	if m == nil {
		return
	}
	m.tracked.WithLabelValues(eventType).Inc()
}

func (m *AnalyticsMetrics) RecordDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *AnalyticsMetrics) RecordEnqueue(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failed.Inc()
		return
	}
	m.enqueued.Inc()
}

// RecordStored учитывает результат записи события в sink: stored, invalid, failed.
func (m *AnalyticsMetrics) RecordStored(result string) {
	if m == nil {
		return
	}
	m.stored.WithLabelValues(result).Inc()
}

func (m *AnalyticsMetrics) SetBufferSize(n int) {
	if m == nil {
		return
	}
	m.queueSize.Set(float64(n))
}
