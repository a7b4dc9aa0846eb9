package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	ItemQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "item_queries_total",
			Help: "Item listing queries by kind",
		},
		[]string{"query"},
	)
	ItemsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "items_expired_total",
			Help: "Listings moved to EXPIRED by the expiry sweep",
		},
	)
	ItemsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "items_sold_total",
			Help: "Listings moved to SOLD by the expiry sweep",
		},
	)
	BidsPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_placed_total",
			Help: "Accepted bids",
		},
	)
)

// Unmatched is the label used for requests no route handled.
const Unmatched = "other"

// RouteLabel returns the route pattern that served r, or Unmatched. Labels
// come from registered patterns only, so arbitrary URLs cannot add series.
func RouteLabel(r *http.Request) string {
	if r.Pattern == "" {
		return Unmatched
	}
	return r.Pattern
}

// MethodLabel maps r.Method onto the standard methods.
func MethodLabel(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return r.Method
	}
	return Unmatched
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latencies. It must wrap the
// ServeMux itself: the mux stores the matched pattern on the request it is
// handed, and nested muxes overwrite it with the innermost match.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		method, route := MethodLabel(r), RouteLabel(r)
		RequestTotal.WithLabelValues(method, route, strconv.Itoa(sw.status)).Inc()
		RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
