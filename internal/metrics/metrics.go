// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	CollectionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kanakku_collections_recorded_total",
		Help: "Collections recorded, by collection type and payment mode.",
	}, []string{"collection_type", "payment_mode"})

	CollectedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kanakku_collected_amount_total",
		Help: "Money collected, split into principal and interest.",
	}, []string{"collection_type", "component"})

	LoansClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kanakku_loans_closed_total",
		Help: "Loans closed by a collection.",
	}, []string{"collection_type"})

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kanakku_websocket_clients",
		Help: "Connected WebSocket clients across all workspaces.",
	})

	WebSocketEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kanakku_websocket_evicted_total",
		Help: "WebSocket clients dropped because their send buffer was full.",
	})
)

// ObserveCollection records one posted collection
func ObserveCollection(collectionType, mode string, principal, interest decimal.Decimal, closed bool) {
	CollectionsRecorded.WithLabelValues(collectionType, mode).Inc()
	CollectedAmount.WithLabelValues(collectionType, "principal").Add(principal.InexactFloat64())
	CollectedAmount.WithLabelValues(collectionType, "interest").Add(interest.InexactFloat64())
	if closed {
		LoansClosed.WithLabelValues(collectionType).Inc()
	}
}
