package api

import (
	"net/http"

	"github.com/ayo6706/merchant-gateway/internal/api/handler"
	"github.com/ayo6706/merchant-gateway/internal/api/middleware"
	"github.com/ayo6706/merchant-gateway/internal/api/spec"
	"github.com/ayo6706/merchant-gateway/internal/config"
	"github.com/ayo6706/merchant-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services are the application services the router exposes.
type Services struct {
	Auth       *service.AuthService
	Onboarding *service.OnboardingService
	Payout     *service.PayoutService
	Catalog    *service.CatalogService
	Treasury   *service.TreasuryService
}

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	redis  redis.Cmdable
	svc    Services
}

// NewRouter wires handlers to services. redis may be nil when sessions are
// kept in memory.
func NewRouter(cfg *config.Config, logger *zap.Logger, redisClient redis.Cmdable, svc Services) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{cfg: cfg, logger: logger, redis: redisClient, svc: svc}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID", handler.FlowTokenHeader},
		ExposedHeaders:   []string{"Location", "X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(api.svc.Auth)
	onboardingHandler := handler.NewOnboardingHandler(api.svc.Onboarding)
	payoutHandler := handler.NewPayoutHandler(api.svc.Payout)
	catalogHandler := handler.NewCatalogHandler(api.svc.Catalog, api.svc.Treasury)
	healthHandler := handler.NewHealthHandler(api.redis)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public Routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Post("/v1/auth/login", authHandler.Login)
		r.Get("/v1/banks", payoutHandler.Banks)

		r.Post("/v1/onboarding", onboardingHandler.Start)
		r.Route("/v1/onboarding/{id}", func(r chi.Router) {
			r.Get("/", onboardingHandler.Get)
			r.Delete("/", onboardingHandler.Close)
			r.Patch("/fields", onboardingHandler.SetFields)
			r.Put("/documents/{field}", onboardingHandler.SelectDocument)
			r.Delete("/documents/{field}", onboardingHandler.ClearDocument)
			r.Post("/next", onboardingHandler.Next)
			r.Post("/back", onboardingHandler.Back)
		})
	})

	// Protected Routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(api.svc.Auth))
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/v1/auth/logout", authHandler.Logout)
		r.Get("/v1/me", authHandler.Me)
		r.Get("/v1/services", catalogHandler.Services)
		r.Get("/v1/treasury", catalogHandler.Treasury)

		r.Post("/v1/payouts", payoutHandler.Start)
		r.Route("/v1/payouts/{id}", func(r chi.Router) {
			r.Get("/", payoutHandler.Get)
			r.Delete("/", payoutHandler.Close)
			r.Put("/bank", payoutHandler.SelectBank)
			r.Put("/account", payoutHandler.SetAccount)
			r.Put("/amount", payoutHandler.SetAmount)
			r.Put("/narration", payoutHandler.SetNarration)
			r.Post("/continue", payoutHandler.Continue)
			r.Post("/back", payoutHandler.Back)
			r.Post("/keys", payoutHandler.PressKey)
			r.Post("/reset", payoutHandler.Reset)
		})
	})

	return r
}
