// Package metrics defines the Prometheus collectors of the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route template, method and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CatalogRequestsTotal counts assembled catalog pages
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_pages_total",
			Help: "Catalog pages assembled by kind and page type",
		},
		[]string{"kind", "page"},
	)

	// IgnoredFiltersTotal counts filters dropped because their value was unknown or malformed
	IgnoredFiltersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ignored_filters_total",
			Help: "Listing filters ignored by kind and parameter",
		},
		[]string{"kind", "param"},
	)

	// ViewCountFailuresTotal counts failed view-count increments
	ViewCountFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_view_count_failures_total",
			Help: "View-count increments that failed and were served stale",
		},
		[]string{"kind"},
	)

	// AggregateFailuresTotal counts page aggregates replaced by their empty default
	AggregateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_aggregate_failures_total",
			Help: "Page aggregates that failed and were rendered empty",
		},
		[]string{"kind", "aggregate"},
	)

	// VisibleContent is the number of visible items per kind
	VisibleContent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_visible_items",
			Help: "Currently visible catalog items by kind",
		},
		[]string{"kind"},
	)

	// NotificationsTotal counts outbound notifications by channel, purpose and outcome
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound notifications by driver, kind and status",
		},
		[]string{"driver", "kind", "status"},
	)

	// FormSubmissionsTotal counts engagement form submissions by form and outcome
	FormSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Engagement form submissions by form and result",
		},
		[]string{"form", "result"},
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCatalogPage records an assembled list or detail page
func RecordCatalogPage(kind, page string) {
	CatalogRequestsTotal.WithLabelValues(kind, page).Inc()
}

// RecordIgnoredFilter records a dropped listing filter
func RecordIgnoredFilter(kind, param string) {
	IgnoredFiltersTotal.WithLabelValues(kind, param).Inc()
}

// RecordViewCountFailure records a failed view-count increment
func RecordViewCountFailure(kind string) {
	ViewCountFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordAggregateFailure records an aggregate that fell back to its default
func RecordAggregateFailure(kind, aggregate string) {
	AggregateFailuresTotal.WithLabelValues(kind, aggregate).Inc()
}

// UpdateVisibleContent sets the visible item gauge of a kind
func UpdateVisibleContent(kind string, count int) {
	VisibleContent.WithLabelValues(kind).Set(float64(count))
}

// RecordNotification records the outcome of one notification
func RecordNotification(driver, kind string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	NotificationsTotal.WithLabelValues(driver, kind, status).Inc()
}

// RecordFormSubmission records an engagement form result such as "accepted", "invalid" or "spam"
func RecordFormSubmission(form, result string) {
	FormSubmissionsTotal.WithLabelValues(form, result).Inc()
}
