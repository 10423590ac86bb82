package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/api"
	"github.com/ayo6706/merchant-gateway/internal/config"
	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/events"
	"github.com/ayo6706/merchant-gateway/internal/flows"
	"github.com/ayo6706/merchant-gateway/internal/gateway"
	"github.com/ayo6706/merchant-gateway/internal/imageprep"
	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/observability"
	"github.com/ayo6706/merchant-gateway/internal/onboarding"
	"github.com/ayo6706/merchant-gateway/internal/payout"
	"github.com/ayo6706/merchant-gateway/internal/service"
	"github.com/ayo6706/merchant-gateway/internal/session"
	"github.com/ayo6706/merchant-gateway/internal/worker"
	"github.com/ayo6706/merchant-gateway/pkg/rabbitmq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and flow janitor, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	janitor := worker.NewJanitor().WithPollInterval(cfg.JanitorInterval)

	// Sessions live in redis when configured, otherwise in process memory.
	var (
		sessions    session.Store
		redisHealth redis.Cmdable
	)
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient)
		redisHealth = redisClient
	} else {
		mem := session.NewMemoryStore()
		janitor.Register("sessions", mem)
		sessions = mem
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			logger.Warn("event producer unavailable, events disabled", zap.Error(err))
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	client := moneybox.NewClient(cfg.MoneyBoxBaseURL, logger).
		WithTimeouts(cfg.OnboardingTimeout, cfg.LoginTimeout).
		WithLookupPaths(cfg.NameEnquiryPath, cfg.VerifyPINPath)

	var gw gateway.Gateway = client
	if cfg.GatewayMode == config.GatewayModeMock {
		mock := gateway.NewMockGateway(cfg.DevPIN)
		mock.Delay = cfg.MockNameDelay
		gw = mock
	}
	logger.Info("payout gateway configured", zap.String("mode", cfg.GatewayMode))

	preparer := imageprep.New(logger).
		WithMaxDimension(cfg.ImageMaxDimension).
		WithQuality(cfg.ImageQuality)

	tokens, err := session.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		return fmt.Errorf("init tokens: %w", err)
	}

	onboardingFlows := flows.NewRegistry[*onboarding.Wizard](domain.FlowKindOnboarding, cfg.FlowIdleTTL)
	payoutFlows := flows.NewRegistry[*payout.Flow](domain.FlowKindPayout, cfg.FlowIdleTTL)
	janitor.Register(domain.FlowKindOnboarding, onboardingFlows)
	janitor.Register(domain.FlowKindPayout, payoutFlows)

	services := api.Services{
		Auth:       service.NewAuthService(client, sessions, tokens, publisher, payoutFlows),
		Onboarding: service.NewOnboardingService(onboardingFlows, preparer, client, publisher, logger),
		Payout:     service.NewPayoutService(payoutFlows, gw, publisher, logger).WithPINDelay(cfg.PINDelay),
		Catalog:    service.NewCatalogService(),
		Treasury:   service.NewTreasuryService(service.NewStaticExchangeRates(), service.SamplePositions()),
	}

	stopJanitor := janitor.Run(ctx)
	logger.Info("janitor started", zap.Stringer("janitor", janitor), zap.Duration("interval", cfg.JanitorInterval))

	router := api.NewRouter(cfg, logger, redisHealth, services)

	// Onboarding submissions may run up to the backend's own bound.
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.OnboardingTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping janitor")
	stopJanitor()
	onboardingFlows.CloseAll()
	payoutFlows.CloseAll()

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
