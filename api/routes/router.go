package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/sitestock/api/controllers"
	"github.com/angelmondragon/sitestock/api/middleware"
	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/internal/projects"
	"github.com/angelmondragon/sitestock/internal/reconcile"
	"github.com/angelmondragon/sitestock/pkg/config"
	"github.com/angelmondragon/sitestock/pkg/logger"
	"github.com/angelmondragon/sitestock/pkg/metrics"
	"github.com/angelmondragon/sitestock/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs. Idempotency, Gatherer
// and HTTPMetrics are optional.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Checks      []controllers.ReadinessCheck
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Projects  projects.Service
	Ledger    ledger.Service
	Plans     controllers.PlanLoader
	Reconcile reconcile.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Actor(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Checks...))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Idempotency != nil {
			r.Use(middleware.Idempotency(deps.Idempotency, logg))
		}

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ProjectsList(deps.Projects, logg))
			r.Post("/", controllers.ProjectCreate(deps.Projects, logg))

			r.Route("/{projectId}", func(r chi.Router) {
				r.Patch("/", controllers.ProjectRename(deps.Projects, logg))
				r.Delete("/", controllers.ProjectDelete(deps.Projects, logg))

				r.Post("/plan", controllers.PlanUpload(deps.Plans, cfg.Plan.HeaderRows, cfg.Plan.MaxUploadMB, logg))
				r.Get("/materials", controllers.MaterialsList(deps.Ledger, logg))
				r.Get("/summary", controllers.ProjectSummary(deps.Ledger, logg))

				r.Route("/history", func(r chi.Router) {
					r.Get("/", controllers.HistoryList(deps.Ledger, logg))
					r.Get("/export", controllers.HistoryExport(deps.Ledger, logg))
					r.Delete("/", controllers.HistoryClear(deps.Ledger, logg))
				})

				r.Post("/reconcile", controllers.ProjectReconcile(deps.Reconcile, logg))
			})
		})

		r.Post("/receipts", controllers.ReceiptCreate(deps.Ledger, logg))
		r.Post("/events/{eventId}/cancel", controllers.EventCancel(deps.Ledger, logg))
	})

	return r
}
