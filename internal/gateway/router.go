package gateway

import (
	"net/http"
	"time"

	"edgetrust/internal/auth"
	"edgetrust/internal/ratelimit"
	"edgetrust/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the gateway engine.
type Options struct {
	Keys   auth.KeyProvider
	Routes []Route
	// Limiter is optional; nil disables rate limiting.
	Limiter        ratelimit.Limiter
	AllowedOrigins []string
	Log            *zap.Logger
	// Transport is used for upstream calls. nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// NewRouter builds the gateway: recovery, request logging, CORS, rate limiting
// and authentication run before every route, including proxied ones.
func NewRouter(o Options) (*gin.Engine, error) {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	proxy, err := NewProxy(o.Routes, o.Transport)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(o.Log))

	if len(o.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     o.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
			ExposeHeaders:    []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if o.Limiter != nil {
		r.Use(ratelimit.Middleware(o.Limiter))
	}
	r.Use(NewAuthenticator(o.Keys).Middleware())

	r.GET("/health", health(o.Keys))
	r.NoRoute(proxy.Handle)
	return r, nil
}

func health(keys auth.KeyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, ready := keys.PublicKey()
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"auth_ready": ready,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
