package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов и складских операций.
// Все методы безопасны для nil-получателя: сервисы в тестах создаются без метрик.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated prometheus.Counter
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec

	// Склад
	stockDecrements *prometheus.CounterVec
	lowStockAlerts  prometheus.Counter

	operationDuration *prometheus.HistogramVec
}

// NewOrderMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_orders_created_total",
			Help: "Total number of orders created",
		})),
		transitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderdesk_order_transitions_total",
			Help: "Total number of applied order transitions",
		}, []string{"transition"})),
		rejections: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderdesk_operation_rejections_total",
			Help: "Total number of rejected operations by error kind",
		}, []string{"operation", "kind"})),
		stockDecrements: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderdesk_stock_decrements_total",
			Help: "Total number of stock decrement attempts by result",
		}, []string{"result"})),
		lowStockAlerts: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_low_stock_alerts_total",
			Help: "Total number of times an article dropped to its stock minimum",
		})),
		operationDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orderdesk_operation_duration_seconds",
			Help:    "Duration of service operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector %T already registered with unexpected type", collector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector %T: %v", collector, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordTransition фиксирует применённый переход: validate, cancel, modify, deliver.
func (m *OrderMetrics) RecordTransition(transition string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition).Inc()
}

// RecordRejection фиксирует отказ операции с категорией ошибки.
func (m *OrderMetrics) RecordRejection(operation, kind string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(operation, kind).Inc()
}

// RecordStockDecrement фиксирует результат условного списания.
func (m *OrderMetrics) RecordStockDecrement(granted bool) {
	if m == nil {
		return
	}
	result := "denied"
	if granted {
		result = "granted"
	}
	m.stockDecrements.WithLabelValues(result).Inc()
}

// RecordLowStock увеличивает счётчик оповещений о низком остатке.
func (m *OrderMetrics) RecordLowStock() {
	if m == nil {
		return
	}
	m.lowStockAlerts.Inc()
}

// ObserveOperation записывает длительность операции сервиса.
func (m *OrderMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
