package mockapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MockShop/internal/guard"
	"MockShop/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// BasePath prefixes every API route, e.g. "/api". Empty mounts at root.
	BasePath string

	// Delay is added to every API response.
	Delay time.Duration

	// LoginRateLimit is the number of login attempts per IP per minute.
	LoginRateLimit int
}

const (
	limitWindow  = 60 * time.Second
	readyTimeout = 2 * time.Second
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
	r.NotFound(kit.NotFound)
	r.MethodNotAllowed(kit.MethodNotAllowed)

	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if metricsOn {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps, metricsOn bool) {
	r.Get("/healthz", healthz)
	r.Get("/readyz", s.handleReady)

	if metricsOn {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}

	api := chi.NewRouter()
	api.NotFound(kit.NotFound)
	api.MethodNotAllowed(kit.MethodNotAllowed)
	api.Use(kit.Latency(deps.Delay))

	loginLimiter := kit.NewIPRateLimiter(deps.LoginRateLimit, limitWindow)
	api.With(loginLimiter.Middleware).Post("/login", s.handleLogin)

	api.Group(func(pr chi.Router) {
		pr.Use(RequireBearer(s.Tokens))
		pr.Get("/products", s.handleListProducts)
		pr.Get("/products/{id}", s.handleGetProduct)
		pr.Post("/products/{id}/comments", s.handleAddComment)
	})

	api.Group(func(gr chi.Router) {
		gr.Use(guard.Provide)
		gr.Use(guard.Middleware(deps.BasePath + guard.LoginPath))
		gr.Use(RequireBearer(s.Tokens))
		gr.Get("/whoami", s.handleWhoAmI)
	})

	if deps.BasePath == "" {
		r.Mount("/", api)
		return
	}
	r.Mount(deps.BasePath, api)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Products.Ping(ctx); err != nil {
		s.log().Warn("readyz failed: product store", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "product store not ready", nil)
		return
	}

	w.WriteHeader(http.StatusOK)
}
