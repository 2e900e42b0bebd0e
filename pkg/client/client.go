// Package client provides the Go SDK for the wpyvr WordPress content API
// and the community hub endpoints layered on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is used when New is called with an empty base URL.
const DefaultBaseURL = "http://localhost:8000"

// CachePolicy describes how long a read may be served from the response cache.
type CachePolicy time.Duration

const (
	// CacheNone always goes to the network; used for live community content.
	CacheNone CachePolicy = 0
	// CacheShort suits frequently changing collections such as posts and events.
	CacheShort = CachePolicy(60 * time.Second)
	// CacheLong suits near-static resources such as pages and categories.
	CacheLong = CachePolicy(time.Hour)
)

// Endpoints lists the REST paths the client talks to. Paths are joined to
// the primary base URL, except the Hub* and Comments paths which use the hub
// base URL.
type Endpoints struct {
	Posts         string
	Events        string
	Pages         string
	Categories    string
	HubPosts      string
	HubLike       string
	HubStats      string // "{id}" is replaced with the post ID
	Comments      string
	ProfileGet    string
	ProfileUpdate string
	Members       string
}

// DefaultEndpoints returns the paths exposed by the wpyvr WordPress install.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Posts:         "/wp-json/wp/v2/posts",
		Events:        "/wp-json/wp/v2/events",
		Pages:         "/wp-json/wp/v2/pages",
		Categories:    "/wp-json/wp/v2/categories",
		HubPosts:      "/wp-json/wp/v2/hub_posts",
		HubLike:       "/wp-json/hub/v1/like",
		HubStats:      "/wp-json/hub/v1/posts/{id}/stats",
		Comments:      "/wp-json/wp/v2/comments",
		ProfileGet:    "/wp-json/custom-profile/v1/get",
		ProfileUpdate: "/wp-json/custom-profile/v1/update",
		Members:       "/wp-json/custom-profile/v1/members",
	}
}

// Client is the content SDK entry point. It holds no per-call state; the
// optional response cache is the only thing shared between calls.
type Client struct {
	baseURL    string
	hubURL     string
	endpoints  Endpoints
	httpClient *http.Client
	cache      *responseCache
	sanitize   func(string) string
	observe    func(resource string, ok bool)
	now        func() time.Time
	logger     *zap.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithHubBase points the community hub endpoints at a separate origin.
// An empty value keeps the primary base URL.
func WithHubBase(hubURL string) Option {
	return func(c *Client) error {
		if hubURL == "" {
			return nil
		}
		u, err := normalizeBase(hubURL)
		if err != nil {
			return fmt.Errorf("hub base URL: %w", err)
		}
		c.hubURL = u
		return nil
	}
}

// WithResponseCache enables the in-memory response cache. Each read applies
// its own CachePolicy; reads with CacheNone are never cached.
func WithResponseCache() Option {
	return func(c *Client) error {
		c.cache = newResponseCache()
		return nil
	}
}

// WithSanitizer runs every rich Content field through fn during
// normalization.
func WithSanitizer(fn func(string) string) Option {
	return func(c *Client) error {
		c.sanitize = fn
		return nil
	}
}

// WithObserver registers a callback invoked once per HTTP exchange with the
// resource name and whether it succeeded.
func WithObserver(fn func(resource string, ok bool)) Option {
	return func(c *Client) error {
		c.observe = fn
		return nil
	}
}

// WithClock overrides the wall clock used to derive Event.IsPast.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		c.now = now
		return nil
	}
}

// WithEndpoints replaces the default REST paths.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) error {
		c.endpoints = e
		return nil
	}
}

// WithLogger sets the logger used for degraded reads.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// New creates a Client for the WordPress install at baseURL.
//
//	c, err := client.New("https://cms.wpyvr.org",
//	    client.WithHubBase("https://hub.wpyvr.org"),
//	    client.WithResponseCache(),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := normalizeBase(baseURL)
	if err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}

	c := &Client{
		baseURL:    base,
		hubURL:     base,
		endpoints:  DefaultEndpoints(),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// BaseURL returns the primary origin.
func (c *Client) BaseURL() string { return c.baseURL }

// HubURL returns the origin used for hub endpoints.
func (c *Client) HubURL() string { return c.hubURL }

func normalizeBase(raw string) (string, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return u.String(), nil
}

// buildURL joins base and path and encodes q.
func buildURL(base, path string, q url.Values) string {
	target := base + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return target
}

// getRaw performs a GET honouring the cache policy. The cache is bypassed
// whenever a bearer token is attached.
func (c *Client) getRaw(ctx context.Context, resource, target, token string, policy CachePolicy) ([]byte, error) {
	cacheable := c.cache != nil && policy > 0 && token == ""
	if cacheable {
		if body, ok := c.cache.get(target); ok {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if policy == CacheNone {
		req.Header.Set("Cache-Control", "no-cache")
	}

	body, err := c.do(req, resource, token)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.cache.set(target, body, time.Duration(policy))
	}
	return body, nil
}

// send performs a mutation with an optional JSON body.
func (c *Client) send(ctx context.Context, resource, method, target, token string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	return c.do(req, resource, token)
}

// do executes an HTTP request, attaching the bearer token if present.
// Non-2xx responses become *APIError.
func (c *Client) do(req *http.Request, resource, token string) ([]byte, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(resource, false)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.record(resource, false)
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(resource, false)
		return nil, newAPIError(resp.StatusCode, body)
	}
	c.record(resource, true)
	return body, nil
}

func (c *Client) record(resource string, ok bool) {
	if c.observe != nil {
		c.observe(resource, ok)
	}
}

// degrade logs a failed read. Read adapters return empty results after it.
func (c *Client) degrade(resource, target string, err error) {
	fields := []zap.Field{
		zap.String("resource", resource),
		zap.String("url", target),
		zap.Error(err),
	}
	if apiErr, ok := asAPIError(err); ok {
		fields = append(fields, zap.Int("status", apiErr.Status))
	}
	c.logger.Warn("content fetch failed; returning empty result", fields...)
}

func (c *Client) content(raw string) string {
	if c.sanitize != nil {
		return c.sanitize(raw)
	}
	return raw
}
