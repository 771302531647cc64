package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"edgetrust/internal/config"
	"edgetrust/internal/gateway"
	"edgetrust/internal/keycache"
	"edgetrust/internal/ratelimit"
	"edgetrust/pkg/logger"
	"edgetrust/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceGateway)
	if err != nil {
		zap.L().Error("config load failed", zap.Error(err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{Env: cfg.App.Env, Service: string(cfg.Service), Level: cfg.Log.Level, File: cfg.Log.File})
	zap.ReplaceGlobals(log)
	defer logger.ShutdownFlush(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Requests answer 503 until the user service hands out its key.
	keys := keycache.New(
		keycache.NewHTTPFetcher(cfg.Gateway.UserServiceURL+"/api/auth/public-key"),
		cfg.Gateway.KeyRetryInterval,
		log.Named("keycache"),
	)
	keys.EnsureReady(rootCtx)

	limiter, closeLimiter, err := newLimiter(rootCtx, cfg)
	if err != nil {
		log.Error("rate limiter init failed", zap.Error(err))
		os.Exit(1)
	}
	defer closeLimiter()

	r, err := gateway.NewRouter(gateway.Options{
		Keys:           keys,
		Routes:         gateway.DefaultRoutes(cfg.Gateway.UserServiceURL, cfg.Gateway.ContentServiceURL),
		Limiter:        limiter,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		Log:            log,
	})
	if err != nil {
		log.Error("gateway init failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("gateway starting",
		zap.String("env", cfg.App.Env),
		zap.String("user_service", cfg.Gateway.UserServiceURL),
		zap.String("content_service", cfg.Gateway.ContentServiceURL),
	)
	if err := utils.Serve(rootCtx, utils.NewHTTPServer(cfg.HTTPAddr(), r), log); err != nil {
		log.Error("http server failed", zap.Error(err))
	}
}

// newLimiter shares counters through Redis when it is configured.
func newLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, func(), error) {
	noop := func() {}
	if cfg.RateLimit.Max <= 0 {
		return nil, noop, nil
	}
	if !cfg.UsesRedis() {
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window), noop, nil
	}
	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		return nil, noop, err
	}
	l := ratelimit.NewRedisLimiter(rdb, "ratelimit:"+string(cfg.Service), cfg.RateLimit.Max, cfg.RateLimit.Window)
	return l, func() { _ = rdb.Close() }, nil
}
