package storefront

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Storefront/internal/session"
	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const (
	sessionLimitPerMin = 30
	limitWindow        = 60 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	metricsOn := deps.MetricsEnabled && deps.Registry != nil
	if deps.MetricsEnabled && deps.Registry == nil && deps.Log != nil {
		deps.Log.Warn("metrics enabled but Registry is nil")
	}

	setupMiddleware(r, deps, metricsOn)
	setupRoutes(r, s, deps, metricsOn)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps, metricsOn bool) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if metricsOn {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps, metricsOn bool) {
	sessionLimiter := kit.NewIPRateLimiter(sessionLimitPerMin, int(limitWindow.Seconds()))

	r.With(sessionLimiter.Middleware).Post("/sessions", s.handleCreateSession)

	r.Group(func(pr chi.Router) {
		pr.Use(session.Auth(s.Tokens, s.Sessions))

		pr.Route("/catalog", func(cr chi.Router) {
			cr.Get("/products", s.handleListProducts)
			cr.Get("/categories", s.handleListCategories)
			cr.Put("/filter", s.handleSetFilter)
		})

		pr.Route("/cart", func(cr chi.Router) {
			cr.Get("/", s.handleGetCart)
			cr.Delete("/", s.handleClearCart)
			cr.Post("/items/{id}/increment", s.handleIncrement)
			cr.Post("/items/{id}/decrement", s.handleDecrement)
			cr.Put("/items/{id}", s.handleSetQuantity)
			cr.Delete("/items/{id}", s.handleRemoveItem)
		})

		pr.Post("/checkout", s.handleCheckout)
	})

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.handleReady)

	if metricsOn {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleReady reports ready only once the catalog snapshot loaded; a
// storefront with no products cannot serve browse traffic usefully.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.Sessions.CatalogLoaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}
