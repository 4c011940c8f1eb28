// Package preload warms image URLs for the dogs coming up in the queue so
// that the backend's image proxy has them ready when a card is shown.
package preload

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/logging"
)

const (
	// DefaultAhead is how many upcoming dogs are preloaded.
	DefaultAhead = 3

	rememberedURLs = 128
	maxImageBytes  = 8 << 20
	requestTimeout = 15 * time.Second
)

// Option customizes a Preloader.
type Option func(*Preloader)

// WithBaseURL resolves relative image URLs against base.
func WithBaseURL(base string) Option {
	return func(p *Preloader) {
		if u, err := url.Parse(strings.TrimSpace(base)); err == nil && u.Host != "" {
			p.base = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Preloader) {
		if hc != nil {
			p.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Preloader) { p.log = logging.OrNop(logger).Named("preload") }
}

// Preloader fetches image URLs in the background. Each Preload call replaces
// the previous list: work for the old list is cancelled. Stop cancels
// everything and waits, so no request outlives it.
type Preloader struct {
	http   *http.Client
	base   *url.URL
	log    *zap.Logger
	loaded *lru.Cache[string, struct{}]

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	current string
	cancel  context.CancelFunc
	stopped bool
}

// New returns a Preloader.
func New(opts ...Option) *Preloader {
	loaded, _ := lru.New[string, struct{}](rememberedURLs)
	root, stop := context.WithCancel(context.Background())
	p := &Preloader{
		http:   &http.Client{Timeout: requestTimeout},
		log:    zap.NewNop(),
		loaded: loaded,
		root:   root,
		stop:   stop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preload starts fetching urls, cancelling any earlier list. Calling it again
// with the same list is a no-op.
func (p *Preloader) Preload(urls []string) {
	resolved := make([]string, 0, len(urls))
	for _, raw := range urls {
		if u := p.resolve(raw); u != "" {
			resolved = append(resolved, u)
		}
	}
	key := strings.Join(resolved, "\n")

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || key == p.current {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.current = key
	if len(resolved) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(p.root)
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.run(ctx, resolved)
	}()
}

// Loaded reports whether u was fetched successfully.
func (p *Preloader) Loaded(u string) bool {
	return p.loaded.Contains(p.resolve(u))
}

// Stop cancels outstanding fetches and waits for them to return.
func (p *Preloader) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.stop()
	p.mu.Unlock()
	p.wg.Wait()
	p.http.CloseIdleConnections()
}

func (p *Preloader) run(ctx context.Context, urls []string) {
	for _, u := range urls {
		if ctx.Err() != nil {
			return
		}
		if p.loaded.Contains(u) {
			continue
		}
		if err := p.fetch(ctx, u); err != nil {
			if ctx.Err() == nil {
				p.log.Debug("preload failed", zap.String("url", u), zap.Error(err))
			}
			continue
		}
		p.loaded.Add(u, struct{}{})
	}
}

func (p *Preloader) fetch(ctx context.Context, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

func (p *Preloader) resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if p.base == nil {
			return ""
		}
		u = p.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "image returned status " + http.StatusText(e.code)
}
