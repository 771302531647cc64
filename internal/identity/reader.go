package identity

import (
	"net/http"
	"time"

	"edgetrust/internal/auth"

	"go.uber.org/zap"
)

// Reader builds the identity for a request arriving at a backend service.
//
// Headers set by the gateway win. A request that reached the service directly
// with a bearer token gets a best-effort local verification; any failure yields
// the anonymous identity. Reader never rejects a request.
type Reader struct {
	keys auth.KeyProvider
	log  *zap.Logger
	now  func() time.Time
}

// NewReader returns a Reader. keys may be nil, which disables the fallback.
func NewReader(keys auth.KeyProvider, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{keys: keys, log: log, now: time.Now}
}

func (r *Reader) ContextFrom(req *http.Request) Context {
	if c, ok := FromHeaders(req.Header); ok {
		return c
	}

	tok, ok := auth.BearerToken(req.Header)
	if !ok || r.keys == nil {
		return Anonymous()
	}

	claims, err := auth.VerifyWith(r.keys, tok, r.now())
	if err != nil {
		r.log.Warn("token verification fallback failed", zap.Error(err))
		return Anonymous()
	}
	return FromClaims(claims)
}
