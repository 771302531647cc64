package rbac

import (
	"edgetrust/internal/apperr"
	"edgetrust/internal/identity"

	"github.com/gin-gonic/gin"
)

// RequireAdmin allows the request through only for callers with the admin role.
// It relies on identity.Middleware having run earlier in the chain.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := Require(identity.FromGin(c), ActionAdminister, ""); err != nil {
			apperr.Abort(c, err)
			return
		}
		c.Next()
	}
}
