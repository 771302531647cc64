package keycache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxKeyBytes = 64 << 10

// HTTPFetcher GETs the key from each URL in order and returns the first
// non-empty 2xx body.
type HTTPFetcher struct {
	URLs   []string
	Client *http.Client
}

func NewHTTPFetcher(urls ...string) *HTTPFetcher {
	return &HTTPFetcher{
		URLs:   urls,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if len(f.URLs) == 0 {
		return nil, errors.New("no public key endpoints configured")
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var errs []error
	for _, u := range f.URLs {
		body, err := fetchOne(ctx, client, u)
		if err == nil {
			return body, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", u, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

func fetchOne(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	return body, nil
}
