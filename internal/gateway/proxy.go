package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"edgetrust/internal/apperr"
	"edgetrust/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Route sends every path under Prefix to Target.
type Route struct {
	Prefix string
	Name   string
	Target string
}

// DefaultRoutes maps the public API onto the two backends.
func DefaultRoutes(userURL, contentURL string) []Route {
	return []Route{
		{Prefix: "/api/auth", Name: "User", Target: userURL},
		{Prefix: "/api/users", Name: "User", Target: userURL},
		{Prefix: "/api/teams", Name: "User", Target: userURL},
		{Prefix: "/api/audit", Name: "User", Target: userURL},
		{Prefix: "/api/tasks", Name: "Content", Target: contentURL},
		{Prefix: "/api/posts", Name: "Content", Target: contentURL},
		{Prefix: "/api/comments", Name: "Content", Target: contentURL},
	}
}

type upstream struct {
	route Route
	proxy *httputil.ReverseProxy
}

type Proxy struct {
	upstreams []upstream
}

func NewProxy(routes []Route, transport http.RoundTripper) (*Proxy, error) {
	p := &Proxy{}
	for _, r := range routes {
		target, err := url.Parse(r.Target)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("route %s: invalid target %q", r.Prefix, r.Target)
		}
		p.upstreams = append(p.upstreams, upstream{route: r, proxy: newReverseProxy(r.Name, target, transport)})
	}
	return p, nil
}

func newReverseProxy(name string, target *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	unavailable := fmt.Sprintf("%s service unavailable", name)
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.From(r.Context()).Error("proxy error",
				zap.String("upstream", name),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = fmt.Fprintf(w, `{"error":%q}`, unavailable)
		},
	}
}

func (p *Proxy) match(path string) (upstream, bool) {
	for _, u := range p.upstreams {
		if path == u.route.Prefix || strings.HasPrefix(path, u.route.Prefix+"/") {
			return u, true
		}
	}
	return upstream{}, false
}

// Handle forwards to the matching backend, or answers 404. Register it with
// engine.NoRoute so it sees every path the gateway does not serve itself.
func (p *Proxy) Handle(c *gin.Context) {
	u, ok := p.match(c.Request.URL.Path)
	if !ok {
		apperr.Abort(c, apperr.NotFound("Route not found on Gateway"))
		return
	}
	u.proxy.ServeHTTP(c.Writer, c.Request)
}
