package main

import (
	"edgetrust/internal/auth"
	"edgetrust/internal/content"
	"edgetrust/internal/httpapi"
	"edgetrust/internal/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, svc *content.Service, keys auth.KeyProvider, log *zap.Logger) {
	r.GET("/health", httpapi.Health("contentservice", nil))

	r.Use(httpapi.ClientIP(), identity.Middleware(identity.NewReader(keys, log.Named("identity"))))
	httpapi.RegisterContentRoutes(r, httpapi.ContentHandlers{Content: svc})
	r.NoRoute(httpapi.NotFound)
}
