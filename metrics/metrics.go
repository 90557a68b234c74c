package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
	productMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_product_mutations_total",
			Help: "Product create/edit/delete attempts by outcome.",
		},
		[]string{"op", "outcome"},
	)
	listingCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_listing_cache_lookups_total",
			Help: "Listing cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, productMutations, listingCacheLookups)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, route string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordMutation counts a product mutation. outcome is "ok", "invalid",
// "not_found" or "failed".
func RecordMutation(op, outcome string) {
	productMutations.WithLabelValues(op, outcome).Inc()
}

// RecordListingCache counts a listing cache lookup.
func RecordListingCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	listingCacheLookups.WithLabelValues(result).Inc()
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
