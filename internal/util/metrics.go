package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	OrderPlacementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_latency_seconds",
		Help:    "Latency of the order placement transaction",
		Buckets: prometheus.DefBuckets,
	})

	OrderStateChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_state_changes_total",
		Help: "Total number of order state changes by target state",
	}, []string{"state"})

	OffersRespondedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offers_responded_total",
		Help: "Total number of offers answered by vendors",
	}, []string{"decision"})

	RatingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratings_created_total",
		Help: "Total number of ratings created",
	})

	ShippingQuotesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipping_quotes_total",
		Help: "Total number of shipping quotes served",
	})

	ShipmentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipments_created_total",
		Help: "Total number of shipments created",
	}, []string{"carrier"})

	TrackingEventsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracking_events_ingested_total",
		Help: "Total number of carrier tracking events ingested",
	})

	WebhooksRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipping_webhooks_rejected_total",
		Help: "Total number of tracking webhooks rejected for a bad secret",
	})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments",
	})

	PaymentFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of system messages written by the notification worker",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
