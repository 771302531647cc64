// Package apperr is the error taxonomy shared by every service.
//
// Each error carries a Kind that decides the HTTP status. Authentication and
// authorization failures are terminal at the boundary that detects them; handlers
// translate any error into a response with Abort.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
	KindUpstream       Kind = "upstream_unavailable"
	KindUnavailable    Kind = "service_not_ready"
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Unauthenticated(msg string) *Error { return New(KindAuthentication, msg) }

func Forbidden(msg string) *Error { return New(KindAuthorization, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Conflict(msg string) *Error { return New(KindConflict, msg) }

func Internal(err error, msg string) *Error { return Wrap(err, KindInternal, msg) }

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

func StatusOf(err error) int { return KindOf(err).Status() }

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Abort writes err as a JSON error body and stops the gin chain.
// Internal errors never leak their cause to the client.
func Abort(c *gin.Context, err error) {
	e, ok := As(err)
	if !ok {
		e = Internal(err, "Internal server error")
	}
	if e.Kind == KindInternal {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	body := gin.H{"error": e.Message}
	if len(e.Fields) > 0 {
		body["details"] = e.Fields
	}
	c.AbortWithStatusJSON(e.Kind.Status(), body)
}
