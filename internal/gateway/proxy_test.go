package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"edgetrust/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_ForwardsByPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)

	users := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "users:"+r.URL.Path+"?"+r.URL.RawQuery)
	}))
	defer users.Close()
	contentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "content:"+r.URL.Path)
	}))
	defer contentSrv.Close()

	r, err := NewRouter(Options{
		Keys:   auth.StaticKey{},
		Routes: DefaultRoutes(users.URL, contentSrv.URL),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login?x=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "users:/api/auth/login?x=1", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts/1/comments", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProxy_NoMatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p, err := NewProxy(DefaultRoutes("http://u", "http://c"), nil)
	require.NoError(t, err)
	r := gin.New()
	r.NoRoute(p.Handle)

	for _, path := range []string{"/api/authority", "/", "/api/task"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"Route not found on Gateway"}`, w.Body.String())
	}
}

func TestProxy_UnreachableUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	r, err := NewRouter(Options{
		Keys:   auth.StaticKey{},
		Routes: DefaultRoutes(deadURL, deadURL),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/public-key", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"User service unavailable"}`, w.Body.String())
}

func TestNewProxy_RejectsBadTarget(t *testing.T) {
	_, err := NewProxy([]Route{{Prefix: "/api/x", Name: "X", Target: "not a url"}}, nil)
	assert.Error(t, err)
}

func TestHealth_IsPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := NewRouter(Options{Keys: auth.StaticKey{}, Routes: DefaultRoutes("http://u", "http://c")})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"auth_ready":false`)
}
