package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindRateLimited:    http.StatusTooManyRequests,
		KindUpstream:       http.StatusBadGateway,
		KindUnavailable:    http.StatusServiceUnavailable,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), string(kind))
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("deleting task: %w", Forbidden("nope"))
	assert.Equal(t, KindAuthorization, KindOf(err))
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	assert.True(t, Is(err, KindAuthorization))
	assert.False(t, Is(err, KindAuthentication))

	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrapUnwraps(t *testing.T) {
	sentinel := errors.New("duplicate")
	err := Wrap(sentinel, KindConflict, "Email already exists")
	assert.ErrorIs(t, err, sentinel)
}

func TestAbortWritesFieldDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, Validation("Validation error", FieldError{Field: "email", Message: "email is invalid"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error   string       `json:"error"`
		Details []FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Validation error", body.Error)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "email", body.Details[0].Field)
	assert.True(t, c.IsAborted())
}

func TestAbortHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
