package auth

import (
	"net/http"
	"strings"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(h http.Header) (string, bool) {
	raw := strings.TrimSpace(h.Get(authorizationHeader))
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	return tok, tok != ""
}
