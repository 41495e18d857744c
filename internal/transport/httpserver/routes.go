package httpserver

import (
	"net/http"

	"carbon-tracker-go/internal/config"
	"carbon-tracker-go/internal/metrics"
	"carbon-tracker-go/internal/transport/httpserver/handler"
	authmw "carbon-tracker-go/internal/transport/httpserver/middleware"
	"carbon-tracker-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, users authmw.UserEnsurer, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.HTTP.RequestTimeout))
	}
	r.Use(authmw.NewCORS(cfg.HTTP.AllowedOrigins()))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.HTTP.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow))
		}

		r.Get("/health", handlers.Health)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, users, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/users/{user_id}/consumption", handlers.ListUserConsumption)
			r.Get("/users/{user_id}/consumption/export", handlers.ExportUserConsumption)
			r.Post("/consumption", handlers.CreateConsumption)
			r.Get("/consumption/{id}", handlers.GetConsumption)
			r.Patch("/consumption/{id}", handlers.PatchConsumption)
			r.Delete("/consumption/{id}", handlers.DeleteConsumption)

			r.Get("/activity-types", handlers.ListActivityTypes)
			r.Get("/activity-types/{id}", handlers.GetActivityType)
			r.Get("/units", handlers.ListUnits)

			r.Get("/analytics/summary", handlers.AnalyticsSummary)
			r.Get("/analytics/timeseries", handlers.AnalyticsTimeseries)
			r.Get("/analytics/by-activity", handlers.AnalyticsByActivity)
			r.Get("/analytics/compare", handlers.AnalyticsCompare)
			r.Get("/analytics/top-activities", handlers.AnalyticsTopActivities)

			r.Get("/companies/me", handlers.GetCompanyMe)
			r.Post("/companies", handlers.CreateCompany)
			r.Post("/companies/join", handlers.JoinCompany)
			r.Post("/companies/leave", handlers.LeaveCompany)
			r.Get("/companies/me/members", handlers.ListCompanyMembers)
		})
	})

	return r
}
