package identity

import "github.com/gin-gonic/gin"

const ginIdentityKey = "identity"

// Middleware resolves the caller identity once per request and stores it on
// both the request context and the gin context.
func Middleware(r *Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := r.ContextFrom(c.Request)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), id))
		c.Set(ginIdentityKey, id)
		c.Next()
	}
}

// FromGin returns the identity resolved by Middleware, or Anonymous.
func FromGin(c *gin.Context) Context {
	if v, ok := c.Get(ginIdentityKey); ok {
		if id, ok := v.(Context); ok {
			return id
		}
	}
	return FromContext(c.Request.Context())
}
