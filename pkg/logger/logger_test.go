package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_LevelFollowsEnv(t *testing.T) {
	assert.True(t, New(Options{Env: "local"}).Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New(Options{Env: "production"}).Core().Enabled(zapcore.DebugLevel))
	assert.True(t, New(Options{Env: "production", Level: "debug"}).Core().Enabled(zapcore.DebugLevel))
}

func TestFrom_FallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, From(context.Background()))

	l := zap.NewNop()
	assert.Same(t, l, From(With(context.Background(), l)))
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(Middleware(zap.New(core)))
	r.GET("/x", func(c *gin.Context) {
		seen = c.Request.Header.Get(headerRequestID)
		FromGin(c).Info("inside")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	rid := w.Header().Get(headerRequestID)
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, seen)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "request", entries[1].Message)
	assert.Equal(t, rid, entries[1].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusNoContent, entries[1].ContextMap()["status"])
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(headerRequestID))
}
