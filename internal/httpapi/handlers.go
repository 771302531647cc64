// Package httpapi holds the HTTP handlers of the user and content services.
// Keep these thin: parse input, call internal services, return JSON.
package httpapi

import (
	"net/http"
	"time"

	"edgetrust/internal/apperr"
	"edgetrust/internal/audit"
	"edgetrust/internal/identity"
	"edgetrust/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Health reports liveness for service. When db is set it is pinged and a
// failure answers 503.
func Health(service string, db utils.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
				_ = c.Error(err)
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"service":   service,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ClientIP makes the client address available to audit events.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// NotFound answers unknown routes on a backend service.
func NotFound(c *gin.Context) {
	apperr.Abort(c, apperr.NotFound("Route not found"))
}

// bindJSON decodes the body into dst and aborts with 400 on malformed input.
// Field validation happens in the services.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apperr.Abort(c, apperr.Validation("Invalid JSON body"))
		return false
	}
	return true
}

func actorFrom(c *gin.Context) audit.Actor {
	id := identity.FromGin(c)
	return audit.Actor{UserID: id.SubjectID, Name: id.DisplayName, Role: id.Role, IP: c.ClientIP()}
}
