package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"edgetrust/internal/audit"
	"edgetrust/internal/config"
	"edgetrust/internal/content"
	"edgetrust/internal/keycache"
	"edgetrust/pkg/logger"
	"edgetrust/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceContent)
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

	// Only used for requests that bypass the gateway.
	keys := keycache.New(
		keycache.NewHTTPFetcher(cfg.Content.PublicKeyURLs...),
		cfg.Content.KeyRetryInterval,
		log.Named("keycache"),
	)
	keys.EnsureReady(rootCtx)

	auditSvc := audit.NewService(audit.NewMemoryRepo(), log.Named("audit"))
	svc := content.NewService(content.NewStore(), auditSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, svc, keys, log)

	log.Info("content service starting", zap.String("env", cfg.App.Env))
	if err := utils.Serve(rootCtx, utils.NewHTTPServer(cfg.HTTPAddr(), r), log); err != nil {
		log.Error("http server failed", zap.Error(err))
	}
}
