// Package keycache holds the public verification key on the services that
// verify credentials but do not issue them.
//
// The key is fetched asynchronously: requests never wait on a fetch. Until the
// first fetch succeeds the cache reports no key, and callers answer 503.
package keycache

import (
	"context"
	"crypto/rsa"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultRetryInterval is the fixed delay between failed fetches.
const DefaultRetryInterval = 5 * time.Second

type State int32

const (
	StateUnavailable State = iota
	StateFetching
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnavailable:
		return "unavailable"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Fetcher retrieves the PEM-encoded public key.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// Cache is safe for concurrent use. The key is written once and never replaced.
type Cache struct {
	fetcher  Fetcher
	interval time.Duration
	log      *zap.Logger

	key   atomic.Pointer[rsa.PublicKey]
	state atomic.Int32

	once sync.Once
	done chan struct{}
}

func New(f Fetcher, retryInterval time.Duration, log *zap.Logger) *Cache {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		fetcher:  f,
		interval: retryInterval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// EnsureReady starts the background fetch loop. Only the first call has any
// effect. The loop ends when the key is stored or ctx is cancelled.
func (c *Cache) EnsureReady(ctx context.Context) {
	c.once.Do(func() {
		c.state.Store(int32(StateFetching))
		go c.run(ctx)
	})
}

// PublicKey never blocks. ok is false until the cache is Ready.
func (c *Cache) PublicKey() (*rsa.PublicKey, bool) {
	k := c.key.Load()
	return k, k != nil
}

func (c *Cache) State() State {
	return State(c.state.Load())
}

// Done is closed when the fetch loop exits.
func (c *Cache) Done() <-chan struct{} {
	return c.done
}

func (c *Cache) run(ctx context.Context) {
	defer close(c.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		err := c.fetchOnce(ctx)
		if err == nil {
			c.log.Info("public key loaded", zap.Int("attempt", attempt))
			return
		}
		if ctx.Err() != nil {
			c.state.Store(int32(StateUnavailable))
			return
		}
		c.log.Warn("public key fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", c.interval),
			zap.Error(err),
		)

		if timer == nil {
			timer = time.NewTimer(c.interval)
		} else {
			timer.Reset(c.interval)
		}
		select {
		case <-ctx.Done():
			c.state.Store(int32(StateUnavailable))
			return
		case <-timer.C:
		}
	}
}

func (c *Cache) fetchOnce(ctx context.Context) error {
	pemBytes, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(pemBytes) == 0 {
		return errors.New("empty public key")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return err
	}
	c.key.Store(key)
	c.state.Store(int32(StateReady))
	return nil
}
