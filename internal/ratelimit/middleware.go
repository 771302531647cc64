package ratelimit

import (
	"math"
	"strconv"

	"edgetrust/internal/apperr"
	"edgetrust/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware limits requests per client IP. Limiter failures let the request
// through and are logged.
func Middleware(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds()))))

		if !d.Allowed {
			h.Set("Retry-After", h.Get("RateLimit-Reset"))
			apperr.Abort(c, apperr.New(apperr.KindRateLimited, "Too many requests, please try again later."))
			return
		}
		c.Next()
	}
}
