package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"edgetrust/internal/audit"
	"edgetrust/internal/auth"
	"edgetrust/internal/config"
	"edgetrust/internal/ratelimit"
	"edgetrust/internal/teams"
	"edgetrust/internal/users"
	"edgetrust/pkg/logger"
	"edgetrust/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceUsers)
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

	kp, generated, err := auth.LoadOrGenerateKeyPair(cfg.Keys.PrivateKeyPath, cfg.Keys.PublicKeyPath, cfg.Keys.Autogenerate)
	if err != nil {
		log.Error("signing key init failed", zap.Error(err))
		os.Exit(1)
	}
	if generated {
		log.Warn("generated a new signing key pair", zap.String("public_key", cfg.Keys.PublicKeyPath))
	}
	signer, err := auth.NewSigner(kp.Private)
	if err != nil {
		log.Error("signer init failed", zap.Error(err))
		os.Exit(1)
	}

	deps := routeDeps{signer: signer, publicKeyPEM: kp.PublicPEM}

	var repo users.Repository = users.NewMemoryRepo()
	if cfg.UsesPostgres() {
		db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", zap.Error(err))
			os.Exit(1)
		}
		defer db.Close()

		pg := users.NewPostgresRepo(db)
		if err := pg.EnsureSchema(rootCtx); err != nil {
			log.Error("postgres schema init failed", zap.Error(err))
			os.Exit(1)
		}
		repo = pg
		deps.db = db
	}

	if cfg.RateLimit.Max > 0 {
		if cfg.UsesRedis() {
			rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
			if err != nil {
				log.Error("redis init failed", zap.Error(err))
				os.Exit(1)
			}
			defer rdb.Close()
			deps.limiter = ratelimit.NewRedisLimiter(rdb, "ratelimit:"+string(cfg.Service), cfg.RateLimit.Max, cfg.RateLimit.Window)
		} else {
			deps.limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		}
	}

	auditSvc := audit.NewService(audit.NewMemoryRepo(), log.Named("audit"))
	deps.users = users.NewService(repo, signer, auditSvc, log.Named("users"))
	deps.teams = teams.NewStore()
	deps.audit = auditSvc

	if cfg.Keys.SeedDemoUsers {
		if err := deps.users.SeedDemoUsers(rootCtx); err != nil {
			log.Error("demo seed failed", zap.Error(err))
			os.Exit(1)
		}
		log.Info("demo users seeded")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, deps, log)

	log.Info("user service starting", zap.String("env", cfg.App.Env), zap.Bool("postgres", cfg.UsesPostgres()))
	if err := utils.Serve(rootCtx, utils.NewHTTPServer(cfg.HTTPAddr(), r), log); err != nil {
		log.Error("http server failed", zap.Error(err))
	}
}
