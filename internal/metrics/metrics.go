package metrics

import (
	"net/http"
	"strconv"
	"time"

	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carbon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	ConsumptionQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carbon_consumption_query_duration_seconds",
			Help:    "Duration of a consumption listing from normalization to reconciled page",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sort"},
	)

	ConsumptionQueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbon_consumption_query_failures_total",
			Help: "Consumption listings that failed, by pipeline stage",
		},
		[]string{"stage"},
	)

	ConsumptionRowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carbon_consumption_rows_dropped_total",
			Help: "Rows removed from fetched pages by the CO2 range filter",
		},
	)

	AuthBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carbon_auth_breaker_state",
			Help: "State of the identity provider circuit breaker (0 closed, 1 half-open, 2 open)",
		},
	)

	ExportRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carbon_export_rows_total",
			Help: "Consumption rows written to spreadsheet exports",
		},
	)
)

func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records every request under its chi route pattern so that path
// parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordHTTPRequest(r.Method, routePattern(r), status, time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func SetAuthBreakerState(state int) {
	AuthBreakerState.Set(float64(state))
}

func RecordExportRows(n int) {
	ExportRowsTotal.Add(float64(n))
}

// ConsumptionObserver feeds consumption pipeline outcomes into the collectors
// above.
type ConsumptionObserver struct{}

var _ consumptiondomain.Observer = ConsumptionObserver{}

func (ConsumptionObserver) QueryCompleted(elapsed time.Duration, stats consumptiondomain.PostProcessStats, inMemorySort bool) {
	sort := "store"
	if inMemorySort {
		sort = "memory"
	}
	ConsumptionQueryDuration.WithLabelValues(sort).Observe(elapsed.Seconds())
	if stats.Dropped > 0 {
		ConsumptionRowsDropped.Add(float64(stats.Dropped))
	}
}

func (ConsumptionObserver) QueryFailed(stage string) {
	ConsumptionQueryFailures.WithLabelValues(stage).Inc()
}
