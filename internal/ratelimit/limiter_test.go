package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Unix(1700000000, 0)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, _ := l.Allow(ctx, "1.1.1.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Minute, d.ResetIn)

	// Other clients have their own window.
	d, _ = l.Allow(ctx, "2.2.2.2")
	assert.True(t, d.Allowed)

	now = now.Add(time.Minute)
	d, _ = l.Allow(ctx, "1.1.1.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func newRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMiddleware_Returns429(t *testing.T) {
	r := newRouter(NewMemoryLimiter(1, time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, w.Body.String())
}

func TestMiddleware_FailsOpen(t *testing.T) {
	r := newRouter(failingLimiter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// fakeScripter answers the window script like Redis would, without a server.
type fakeScripter struct {
	redis.Scripter
	counts map[string]int64
	pttl   int64
	keys   []string
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	f.keys = append(f.keys, keys[0])
	f.counts[keys[0]]++
	return redis.NewCmdResult([]any{f.counts[keys[0]], f.pttl}, nil)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.EvalSha(ctx, "", keys, args...)
}

func TestRedisLimiter_Allow(t *testing.T) {
	rdb := &fakeScripter{counts: map[string]int64{}, pttl: 1500}
	l := NewRedisLimiter(rdb, "ratelimit:gateway", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1500*time.Millisecond, d.ResetIn)
	}
	d, err := l.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, "ratelimit:gateway:1.1.1.1", rdb.keys[0])

	r := newRouter(l)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}
