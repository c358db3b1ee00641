// Package api is the typed REST client of the storefront backend. Every
// method issues exactly one HTTP request and returns either its output or a
// *Failure / *TransportError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/querycache"
	"github.com/tair/storefront/pkg/circuitbreaker"
	"github.com/tair/storefront/pkg/logger"
	"github.com/tair/storefront/pkg/metrics"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 * 1024 * 1024

// Header names the backend reads
const (
	HeaderCSRF      = "X-CSRF-TOKEN"
	HeaderRequestID = "X-Request-ID"
)

// TokenSource supplies the credentials of authenticated calls
type TokenSource interface {
	Get(ctx context.Context) (domain.Token, error)
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the storefront backend
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	tokens   TokenSource
	timeout  time.Duration
	breakers *circuitbreaker.Manager
	cache    querycache.Cache
	metrics  *metrics.Client
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the traced default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBreakers guards each resource with a circuit breaker
func WithBreakers(m *circuitbreaker.Manager) Option {
	return func(c *Client) { c.breakers = m }
}

// WithCache serves repeated reads from cache
func WithCache(cache querycache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMetrics records request metrics
func WithMetrics(m *metrics.Client) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for cfg.BaseURL
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		tokens:  tokens,
		timeout: timeout,
		cache:   querycache.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one call
type request struct {
	method   string
	path     string
	query    url.Values
	body     interface{}
	raw      io.Reader // pre-encoded body, e.g. multipart
	rawType  string
	auth     bool
	bare     bool   // response has no {ok} envelope
	resource string // breaker, metrics and cache scope
	cacheKey string // cache scope of a cacheable GET
	evict    []string
}

// envelope is the common part of every response
type envelope struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.call(ctx, req, out)

	outcome := "ok"
	switch {
	case IsTransport(err):
		outcome = "transport"
	case err != nil:
		outcome = "failure"
	}
	c.metrics.Observe(req.method, req.resource, outcome, time.Since(start))

	event := logger.Debug(ctx)
	if outcome == "transport" {
		event = logger.Warn(ctx)
	}
	event.
		Str("method", req.method).
		Str("path", req.path).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("API call finished")

	return err
}

func (c *Client) call(ctx context.Context, req request, out interface{}) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	var cacheKey string
	if req.cacheKey != "" && req.method == http.MethodGet {
		cacheKey = querycache.Key(req.cacheKey, req.method, req.path, httpReq.URL.RawQuery, httpReq.Header.Get("Authorization"))
		if cached, ok := c.cache.Get(ctx, cacheKey); ok {
			if err := decode(req, http.StatusOK, cached, out); err == nil {
				c.metrics.CacheHit(req.resource)
				return nil
			}
		}
	}

	var body []byte
	send := func() error {
		var err error
		body, err = c.send(httpReq, req, out)
		return err
	}

	if c.breakers != nil {
		err = c.breakers.GetOrCreate(req.resource).Call(send, countsAsOutage)
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return &TransportError{Method: req.method, Path: req.path, Err: err}
		}
	} else {
		err = send()
	}
	if err != nil {
		return err
	}

	if cacheKey != "" {
		c.cache.Set(ctx, cacheKey, body)
	}
	for _, prefix := range req.evict {
		if err := c.cache.InvalidatePrefix(ctx, prefix); err != nil {
			logger.Warn(ctx).Err(err).Str("prefix", prefix).Msg("Failed to invalidate cache")
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.raw != nil:
		body = req.raw
		contentType = req.rawType
	case req.body != nil:
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())

	if req.auth && c.tokens != nil {
		tok, err := c.tokens.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		if tok.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok.Token)
		}
		if tok.CSRF != "" {
			httpReq.Header.Set(HeaderCSRF, tok.CSRF)
		}
	}
	return httpReq, nil
}

func (c *Client) send(httpReq *http.Request, req request, out interface{}) ([]byte, error) {
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Status: resp.StatusCode, Err: err}
	}

	if err := decode(req, resp.StatusCode, body, out); err != nil {
		return nil, err
	}
	return body, nil
}

// decode classifies a response and unmarshals its payload into out
func decode(req request, status int, body []byte, out interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if status >= 200 && status < 300 && out == nil {
			return nil
		}
		if status >= 400 && status < 500 {
			return &Failure{Status: status, Reason: http.StatusText(status)}
		}
		return &TransportError{Method: req.method, Path: req.path, Status: status, Err: errors.New("empty response body")}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &TransportError{Method: req.method, Path: req.path, Status: status, Err: fmt.Errorf("undecodable response: %w", err)}
	}

	if status < 200 || status >= 300 {
		reason := env.Error
		if reason == "" {
			reason = http.StatusText(status)
		}
		return &Failure{Status: status, Reason: reason}
	}

	if env.OK == nil && !req.bare {
		return &TransportError{Method: req.method, Path: req.path, Status: status, Err: errors.New("response has no ok field")}
	}
	if env.OK != nil && !*env.OK {
		reason := env.Error
		if reason == "" {
			reason = "request was rejected"
		}
		return &Failure{Status: status, Reason: reason}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Method: req.method, Path: req.path, Status: status, Err: fmt.Errorf("undecodable response: %w", err)}
	}
	return nil
}

// pageQuery encodes the page parameter shared by paged endpoints
func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	return q
}
