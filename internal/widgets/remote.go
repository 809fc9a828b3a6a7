// remote.go — Widget pages fetched from a deployed copy of the demo site.
package widgets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxPageBytes = 4 << 20

// Remote fetches page HTML from baseURL+path. Concurrent requests for the
// same path share one fetch; results are cached for ttl.
type Remote struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]cachedPage
}

type cachedPage struct {
	html    string
	fetched time.Time
}

// NewRemote returns a Remote. A nil client uses one with a 10s timeout; a
// non-positive ttl disables caching.
func NewRemote(baseURL string, client *http.Client, ttl time.Duration, logger *zap.Logger) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		cache:   make(map[string]cachedPage),
	}
}

// HTML implements Source.
func (r *Remote) HTML(ctx context.Context, req Request) (string, error) {
	path := req.Path
	if path == "" {
		path = "/"
	}

	if html, ok := r.cached(path); ok {
		return html, nil
	}

	ch := r.group.DoChan(path, func() (any, error) {
		// Shared by every waiter, so one caller's cancellation must not abort it.
		html, err := r.fetch(context.WithoutCancel(ctx), path)
		if err != nil {
			return "", err
		}
		r.store(path, html)
		return html, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Remote) fetch(ctx context.Context, path string) (string, error) {
	url := r.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	r.logger.Debug("fetched widget page", zap.String("url", url), zap.Int("bytes", len(body)))
	return string(body), nil
}

func (r *Remote) cached(path string) (string, bool) {
	if r.ttl <= 0 {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cache[path]
	if !ok || r.now().Sub(c.fetched) > r.ttl {
		return "", false
	}
	return c.html, true
}

func (r *Remote) store(path, html string) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[path] = cachedPage{html: html, fetched: r.now()}
}

// Forget drops every cached page.
func (r *Remote) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cachedPage)
}
