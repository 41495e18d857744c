package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/api/consumption/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/consumption/{id}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/consumption/"+id, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMiddlewareDefaultsStatusToOK(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestConsumptionObserver(t *testing.T) {
	observer := ConsumptionObserver{}

	failed := testutil.ToFloat64(ConsumptionQueryFailures.WithLabelValues("query"))
	dropped := testutil.ToFloat64(ConsumptionRowsDropped)

	observer.QueryFailed("query")
	observer.QueryCompleted(20*time.Millisecond, consumptiondomain.PostProcessStats{Fetched: 10, Dropped: 3, PostFiltered: true}, true)
	observer.QueryCompleted(time.Millisecond, consumptiondomain.PostProcessStats{Fetched: 2}, false)

	assert.Equal(t, failed+1, testutil.ToFloat64(ConsumptionQueryFailures.WithLabelValues("query")))
	assert.Equal(t, dropped+3, testutil.ToFloat64(ConsumptionRowsDropped))
}

func TestSetAuthBreakerState(t *testing.T) {
	SetAuthBreakerState(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(AuthBreakerState))
	SetAuthBreakerState(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(AuthBreakerState))
}
