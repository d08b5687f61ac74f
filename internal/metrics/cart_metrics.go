package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики контейнеров сессии (корзина, избранное, сравнение).
// Методы безопасны для nil-получателя: контейнеры в тестах работают без метрик.
type CartMetrics struct {
	// Результаты операций
	addOutcomes    *prometheus.CounterVec
	updateOutcomes *prometheus.CounterVec
	removals       prometheus.Counter
	clears         prometheus.Counter

	// Персистентность снимков
	persistDuration  *prometheus.HistogramVec
	persistErrors    *prometheus.CounterVec
	corruptSnapshots *prometheus.CounterVec

	// Размер корзины после мутации
	cartSize prometheus.Histogram
}

// NewCartMetrics регистрирует метрики в глобальном registry.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer регистрирует метрики в переданном registry.
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		addOutcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_add_total",
			Help: "Total number of add-to-cart attempts grouped by outcome",
		}, []string{"outcome", "reason"}),
		updateOutcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_update_quantity_total",
			Help: "Total number of quantity updates grouped by result",
		}, []string{"result"}),
		removals: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_remove_total",
			Help: "Total number of cart line removals",
		}),
		clears: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_clear_total",
			Help: "Total number of cart clears",
		}),
		persistDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_snapshot_persist_duration_seconds",
			Help:    "Duration of snapshot persistence in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"key"}),
		persistErrors: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_snapshot_persist_errors_total",
			Help: "Total number of failed snapshot writes",
		}, []string{"key"}),
		corruptSnapshots: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_snapshot_corrupt_total",
			Help: "Total number of stored snapshots discarded because of an invalid shape",
		}, []string{"key"}),
		cartSize: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_cart_items",
			Help:    "Total item count of a cart after a successful mutation",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 50},
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordAdd учитывает попытку добавления; reason пустой для успешных добавлений.
func (m *CartMetrics) RecordAdd(outcome, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.addOutcomes.WithLabelValues(outcome, reason).Inc()
}

// RecordUpdate учитывает результат updateQuantity: set, removed, rejected, noop.
func (m *CartMetrics) RecordUpdate(result string) {
	if m == nil {
		return
	}
	m.updateOutcomes.WithLabelValues(result).Inc()
}

// RecordRemove увеличивает счётчик удалений позиций.
func (m *CartMetrics) RecordRemove() {
	if m == nil {
		return
	}
	m.removals.Inc()
}

// RecordClear увеличивает счётчик очисток корзины.
func (m *CartMetrics) RecordClear() {
	if m == nil {
		return
	}
	m.clears.Inc()
}

// RecordPersist записывает длительность сохранения снимка и ошибку, если была.
func (m *CartMetrics) RecordPersist(key string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.persistDuration.WithLabelValues(key).Observe(duration.Seconds())
	if err != nil {
		m.persistErrors.WithLabelValues(key).Inc()
	}
}

// RecordCorruptSnapshot учитывает отброшенный при загрузке снимок.
func (m *CartMetrics) RecordCorruptSnapshot(key string) {
	if m == nil {
		return
	}
	m.corruptSnapshots.WithLabelValues(key).Inc()
}

// RecordCartSize фиксирует количество единиц в корзине после мутации.
func (m *CartMetrics) RecordCartSize(totalItems int) {
	if m == nil {
		return
	}
	m.cartSize.Observe(float64(totalItems))
}
