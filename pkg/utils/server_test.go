package utils

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, zap.NewNop()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_ReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewHTTPServer(ln.Addr().String(), http.NotFoundHandler())
	err = Serve(context.Background(), srv, zap.NewNop())
	assert.Error(t, err)
}
