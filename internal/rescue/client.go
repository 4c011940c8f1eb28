package rescue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DogLister fetches pages of candidate dogs.
type DogLister interface {
	ListDogs(ctx context.Context, query DogQuery) (DogPage, error)
}

// Counter reports how many dogs match a filter.
type Counter interface {
	CountDogs(ctx context.Context, query DogQuery) (int, error)
	FetchFilterCounts(ctx context.Context, country string) (FilterCounts, error)
}

// Favoriter records a positive decision server-side.
type Favoriter interface {
	AddFavorite(ctx context.Context, id DogID, name string) error
}

// API is everything pawswipe needs from the backend.
type API interface {
	DogLister
	Counter
	Favoriter
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the rescue HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8080"
	defaultUserAgent = "pawswipe/0.1"
	requestTimeout   = 10 * time.Second
)

// Option customizes a Client.
type Option func(*Client)

// WithRateLimit paces outgoing requests to perSecond with a small burst.
// Zero or negative disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the API rooted at apiURL.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DogQuery configures /api/dogs and /api/dogs/count requests.
type DogQuery struct {
	Country   string
	Sizes     []string
	Ages      []string
	Limit     int
	Offset    int
	Randomize bool
}

func (q DogQuery) values() url.Values {
	values := url.Values{}
	if country := strings.TrimSpace(q.Country); country != "" {
		values.Set("country", country)
	}
	for _, size := range q.Sizes {
		if size = strings.TrimSpace(size); size != "" {
			values.Add("size", size)
		}
	}
	for _, age := range q.Ages {
		if age = strings.TrimSpace(age); age != "" {
			values.Add("age", age)
		}
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Randomize {
		values.Set("randomize", "1")
	}
	return values
}

// ListDogs retrieves one page of dogs matching query.
func (c *Client) ListDogs(ctx context.Context, query DogQuery) (DogPage, error) {
	if c == nil {
		return DogPage{}, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/dogs", RawQuery: query.values().Encode()}
	var payload DogPage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return DogPage{}, err
	}
	return payload, nil
}

// CountDogs reports how many dogs match query. Limit, Offset and Randomize
// are ignored.
func (c *Client) CountDogs(ctx context.Context, query DogQuery) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}
	query.Limit, query.Offset, query.Randomize = 0, 0, false
	rel := &url.URL{Path: "/api/dogs/count", RawQuery: query.values().Encode()}
	var payload CountResponse
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// FetchFilterCounts retrieves per-size and per-age counts for a country.
func (c *Client) FetchFilterCounts(ctx context.Context, country string) (FilterCounts, error) {
	if c == nil {
		return FilterCounts{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(country) == "" {
		return FilterCounts{}, fmt.Errorf("country required")
	}
	values := url.Values{}
	values.Set("country", strings.TrimSpace(country))
	rel := &url.URL{Path: "/api/dogs/filter-counts", RawQuery: values.Encode()}
	var payload FilterCounts
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return FilterCounts{}, err
	}
	return payload, nil
}

// AddFavorite records id as a favorite.
func (c *Client) AddFavorite(ctx context.Context, id DogID, name string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if id == "" {
		return fmt.Errorf("dog id required")
	}
	body, err := json.Marshal(FavoriteRequest{DogID: id, Name: name})
	if err != nil {
		return fmt.Errorf("encode favorite: %w", err)
	}
	return c.doURL(ctx, http.MethodPost, &url.URL{Path: "/api/favorites"}, body, nil)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body []byte, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: rel.Path, Code: resp.StatusCode}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
