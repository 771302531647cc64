// Package gateway is the only place where credentials are verified. It strips
// client-supplied identity headers, checks the bearer token, asserts the
// caller identity to the backends and forwards the request.
package gateway

import (
	"time"

	"edgetrust/internal/apperr"
	"edgetrust/internal/auth"
	"edgetrust/internal/identity"
	"edgetrust/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PublicPaths pass without a credential. Matching is exact.
var PublicPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/public-key",
	"/health",
}

const (
	msgNotReady     = "Service unavailable. Auth service is not ready."
	msgNoToken      = "Unauthorized: No token provided."
	msgInvalidToken = "Unauthorized: Invalid token."
)

type Authenticator struct {
	keys   auth.KeyProvider
	public map[string]struct{}
	now    func() time.Time
}

func NewAuthenticator(keys auth.KeyProvider) *Authenticator {
	public := make(map[string]struct{}, len(PublicPaths))
	for _, p := range PublicPaths {
		public[p] = struct{}{}
	}
	return &Authenticator{keys: keys, public: public, now: time.Now}
}

// Middleware only decides and rewrites headers. Forwarding is done by Proxy.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Applies to public paths too.
		identity.StripHeaders(c.Request.Header)

		if _, ok := a.public[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		key, ok := a.keys.PublicKey()
		if !ok {
			apperr.Abort(c, apperr.New(apperr.KindUnavailable, msgNotReady))
			return
		}

		tok, ok := auth.BearerToken(c.Request.Header)
		if !ok {
			apperr.Abort(c, apperr.Unauthenticated(msgNoToken))
			return
		}

		claims, err := auth.Verify(tok, key, a.now())
		if err != nil {
			logger.FromGin(c).Warn("token verification failed", zap.Error(err))
			apperr.Abort(c, apperr.Unauthenticated(msgInvalidToken))
			return
		}

		identity.WriteClaims(c.Request.Header, claims)
		c.Next()
	}
}
