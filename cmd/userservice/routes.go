package main

import (
	"edgetrust/internal/audit"
	"edgetrust/internal/auth"
	"edgetrust/internal/httpapi"
	"edgetrust/internal/identity"
	"edgetrust/internal/ratelimit"
	"edgetrust/internal/teams"
	"edgetrust/internal/users"
	"edgetrust/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type routeDeps struct {
	signer       *auth.Signer
	publicKeyPEM []byte
	users        *users.Service
	teams        *teams.Store
	audit        *audit.Service
	// Optional.
	db      *pgxpool.Pool
	limiter ratelimit.Limiter
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps, log *zap.Logger) {
	var db utils.Pinger
	if d.db != nil {
		db = d.db
	}
	r.GET("/health", httpapi.Health("userservice", db))

	if d.limiter != nil {
		r.Use(ratelimit.Middleware(d.limiter))
	}
	// Tokens issued here are verified locally when a request bypasses the gateway.
	r.Use(httpapi.ClientIP(), identity.Middleware(identity.NewReader(d.signer, log.Named("identity"))))

	httpapi.RegisterUserRoutes(r, httpapi.UserHandlers{
		Users:        d.users,
		Teams:        d.teams,
		Audit:        d.audit,
		PublicKeyPEM: d.publicKeyPEM,
	})
	r.NoRoute(httpapi.NotFound)
}
