// Package client calls the recommendation backend and classifies its answer
// as a recommendation list, a business error or a transport failure.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"bookrec/internal/logger"
	"bookrec/internal/metrics"
)

// ErrTransport wraps every failure that is not a backend-reported error.
var ErrTransport = errors.New("recommendation request failed")

var (
	ErrStatus = fmt.Errorf("%w: unexpected status", ErrTransport)
	ErrDecode = fmt.Errorf("%w: response is not JSON", ErrTransport)
	ErrSchema = fmt.Errorf("%w: malformed envelope", ErrTransport)
)

const maxBody = 10 << 20

// Client issues GET /recommend calls against a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(0),
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewHTTPClient builds the transport used by default. A zero timeout leaves
// requests bounded only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
		ForceAttemptHTTP2: true,
	}
	return &http.Client{Transport: t, Timeout: timeout}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RecommendURL returns the request URL for asin. The value is sent as-is,
// including an empty string, and percent-encoded so it stays one parameter.
func (c *Client) RecommendURL(asin string) string {
	return c.baseURL + "/recommend?" + url.Values{"asin": {asin}}.Encode()
}

// Recommend asks the backend for books similar to asin. A backend business
// error comes back as an Envelope with Error set and a nil error; every
// other failure is an error wrapping ErrTransport.
func (c *Client) Recommend(ctx context.Context, asin string) (*Envelope, error) {
	env, err := c.recommend(ctx, asin)
	switch {
	case err != nil:
		metrics.ClientOutcomesTotal.WithLabelValues("transport_error").Inc()
	case env.IsError():
		metrics.ClientOutcomesTotal.WithLabelValues("business_error").Inc()
	default:
		metrics.ClientOutcomesTotal.WithLabelValues("success").Inc()
	}
	return env, err
}

func (c *Client) recommend(ctx context.Context, asin string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RecommendURL(asin), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.IDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	if c.log.IsLevelEnabled(logrus.DebugLevel) {
		c.log.WithFields(logrus.Fields{
			"asin":   asin,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Debug("client.response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, snippet(body))
	}
	return decodeEnvelope(body)
}

func decodeEnvelope(body []byte) (*Envelope, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrDecode, snippet(body))
	}
	res, err := envelopeSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &env, nil
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
