// Package identity carries the caller identity that the gateway asserts to
// backend services through x-user-* headers.
//
// Backend services never authenticate. They trust these headers because the
// gateway strips client-supplied copies before verifying the credential and
// writing its own.
package identity

import (
	"context"
	"net/http"
	"strings"

	"edgetrust/internal/auth"
)

// Identity headers, lower-case on the wire.
const (
	HeaderUserID    = "x-user-id"
	HeaderUserName  = "x-user-name"
	HeaderUserEmail = "x-user-email"
	HeaderUserRole  = "x-user-role"
	HeaderUserTeams = "x-user-teams"
)

// headerPrefix covers every identity header, including ones added later.
const headerPrefix = "X-User-"

const (
	GuestName   = "Guest"
	DefaultRole = "user"
)

// Context is the request-scoped identity. It is never persisted.
type Context struct {
	SubjectID   string
	DisplayName string
	Email       string
	Role        string
	TeamIDs     []string
}

func Anonymous() Context {
	return Context{DisplayName: GuestName, Role: DefaultRole, TeamIDs: []string{}}
}

func (c Context) IsAnonymous() bool { return c.SubjectID == "" }

// FromClaims maps a verified credential to an identity, applying the same
// defaults as the header reader.
func FromClaims(claims auth.Claims) Context {
	c := Context{
		SubjectID:   claims.UserID,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Role:        claims.Role,
		TeamIDs:     claims.Teams,
	}
	return c.withDefaults()
}

func (c Context) withDefaults() Context {
	if c.DisplayName == "" {
		c.DisplayName = GuestName
	}
	if c.Role == "" {
		c.Role = DefaultRole
	}
	if c.TeamIDs == nil {
		c.TeamIDs = []string{}
	}
	return c
}

// WriteHeaders sets exactly the five identity headers on h.
func (c Context) WriteHeaders(h http.Header) {
	h.Set(HeaderUserID, c.SubjectID)
	h.Set(HeaderUserName, c.DisplayName)
	h.Set(HeaderUserEmail, c.Email)
	h.Set(HeaderUserRole, c.Role)
	h.Set(HeaderUserTeams, strings.Join(c.TeamIDs, ","))
}

// WriteClaims sets the five identity headers from claims verbatim. Defaults
// are applied by the reading side, not here.
func WriteClaims(h http.Header, claims auth.Claims) {
	Context{
		SubjectID:   claims.UserID,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Role:        claims.Role,
		TeamIDs:     claims.Teams,
	}.WriteHeaders(h)
}

// StripHeaders removes every x-user-* header from h.
func StripHeaders(h http.Header) {
	for k := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(k), headerPrefix) {
			delete(h, k)
		}
	}
}

// FromHeaders reads the identity headers. ok is false when x-user-id is absent.
func FromHeaders(h http.Header) (Context, bool) {
	id := strings.TrimSpace(h.Get(HeaderUserID))
	if id == "" {
		return Context{}, false
	}
	c := Context{
		SubjectID:   id,
		DisplayName: h.Get(HeaderUserName),
		Email:       h.Get(HeaderUserEmail),
		Role:        h.Get(HeaderUserRole),
		TeamIDs:     splitTeams(h.Get(HeaderUserTeams)),
	}
	return c.withDefaults(), true
}

func splitTeams(raw string) []string {
	out := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by Middleware, or Anonymous.
func FromContext(ctx context.Context) Context {
	if v, ok := ctx.Value(ctxKey{}).(Context); ok {
		return v
	}
	return Anonymous()
}
