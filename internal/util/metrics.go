package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_runs_total",
		Help: "Total number of inventory sync runs by resulting status",
	}, []string{"status"})

	SyncItemsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_sync_items_processed_total",
		Help: "Total number of inventory items processed by sync",
	})

	SyncItemsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_sync_items_skipped_total",
		Help: "Total number of inventory records skipped by sync",
	})

	SyncItemErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_sync_item_errors_total",
		Help: "Total number of per-record sync failures",
	})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_sync_duration_seconds",
		Help:    "Duration of full inventory sync runs",
		Buckets: prometheus.DefBuckets,
	})

	PriceChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_price_changes_total",
		Help: "Total number of recorded price changes",
	})

	SignificantPriceChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_significant_price_changes_total",
		Help: "Total number of price changes above the significance threshold",
	})

	ManagerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manager_api_requests_total",
		Help: "Total number of Manager.io API requests",
	}, []string{"resource", "status"})

	ManagerRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "manager_api_request_latency_seconds",
		Help:    "Latency of Manager.io API requests",
		Buckets: prometheus.DefBuckets,
	})

	ProductionOrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "production_orders_created_total",
		Help: "Total number of production orders created",
	})

	ProductionOrdersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "production_orders_submitted_total",
		Help: "Total number of production orders submitted to Manager.io",
	})

	ProductionOrderFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "production_orders_failed_total",
		Help: "Total number of failed production order operations",
	}, []string{"reason"})

	PriceAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_alerts_total",
		Help: "Total number of significant price change alerts consumed",
	})

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
