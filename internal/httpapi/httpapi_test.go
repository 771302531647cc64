package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"edgetrust/internal/audit"
	"edgetrust/internal/auth"
	"edgetrust/internal/content"
	"edgetrust/internal/identity"
	"edgetrust/internal/teams"
	"edgetrust/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type userService struct {
	engine *gin.Engine
	signer *auth.Signer
	pem    []byte
	audits *audit.MemoryRepo
}

func newUserService(t *testing.T) userService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kp, err := auth.GenerateKeyPair()
	require.NoError(t, err)
	signer, err := auth.NewSigner(kp.Private)
	require.NoError(t, err)

	audits := audit.NewMemoryRepo()
	auditSvc := audit.NewService(audits, nil)

	r := gin.New()
	r.Use(ClientIP(), identity.Middleware(identity.NewReader(signer, nil)))
	RegisterUserRoutes(r, UserHandlers{
		Users:        users.NewService(users.NewMemoryRepo(), signer, auditSvc, nil),
		Teams:        teams.NewStore(),
		Audit:        auditSvc,
		PublicKeyPEM: kp.PublicPEM,
	})
	r.NoRoute(NotFound)
	return userService{engine: r, signer: signer, pem: kp.PublicPEM, audits: audits}
}

func newContentService(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ClientIP(), identity.Middleware(identity.NewReader(nil, nil)))
	RegisterContentRoutes(r, ContentHandlers{Content: content.NewService(content.NewStore(), audit.NewService(audit.NewMemoryRepo(), nil))})
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any, hdr http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func asUser(id identity.Context) http.Header {
	h := http.Header{}
	id.WriteHeaders(h)
	return h
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func register(name, email string) gin.H {
	return gin.H{"name": name, "email": email, "age": 30, "password": "secret1"}
}
