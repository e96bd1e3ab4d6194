package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "railguard"

// Notification outcomes
const (
	NotificationSent    = "sent"
	NotificationSkipped = "skipped"
	NotificationFailed  = "failed"
)

// Metrics holds the Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated       prometheus.Counter
	OrderRejections     *prometheus.CounterVec
	StatusChanges       *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
	WebhookUpdates      *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders accepted and persisted.",
		}),
		OrderRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_rejections_total",
			Help:      "Order submissions refused, by reason.",
		}, []string{"reason"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Order status transitions applied by admins.",
		}, []string{"status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "New order notifications, by outcome.",
		}, []string{"result"}),
		WebhookUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_updates_total",
			Help:      "Inbound chat updates, by kind.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OrdersCreated,
		m.OrderRejections,
		m.StatusChanges,
		m.Notifications,
		m.WebhookUpdates,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RejectOrder counts a refused submission
func (m *Metrics) RejectOrder(reason string) {
	m.OrderRejections.WithLabelValues(reason).Inc()
}

// RecordNotification counts a notification outcome
func (m *Metrics) RecordNotification(result string) {
	m.Notifications.WithLabelValues(result).Inc()
}

// RecordWebhookUpdate counts an inbound chat update
func (m *Metrics) RecordWebhookUpdate(kind string) {
	m.WebhookUpdates.WithLabelValues(kind).Inc()
}

// Handle counts order lifecycle events published on the bus
func (m *Metrics) Handle(ctx context.Context, ev shared.DomainEvent) error {
	switch e := ev.(type) {
	case *order.OrderCreatedEvent:
		m.OrdersCreated.Inc()
	case *order.OrderStatusChangedEvent:
		m.StatusChanges.WithLabelValues(string(e.NewStatus)).Inc()
	}
	return nil
}

// EventTypes lists the events Handle counts
func (m *Metrics) EventTypes() []string {
	return []string{order.EventTypeOrderCreated, order.EventTypeOrderStatusChanged}
}

var _ shared.EventHandler = (*Metrics)(nil)
