// Package fetch talks to the film recommendation backend.
//
// Client carries the transport policy shared by every call: base URL, per
// request timeout, a rate limiter, and a circuit breaker. CatalogLoader and
// RecommendationClient build on it and never let a transport error escape
// unwrapped: callers get an empty result plus an error that matches
// ErrCatalogLoad or ErrRecommendation.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/abelbrown/filmpick/internal/logging"
	"github.com/abelbrown/filmpick/internal/otel"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

const userAgent = "filmpick/1.0"

// Options configures a Client. Zero values take the defaults noted per field.
type Options struct {
	BaseURL           string        // trailing slashes are stripped
	Timeout           time.Duration // default 15s
	RequestsPerSecond float64       // default 5
	Burst             int           // default 4
	BreakerFailures   uint32        // consecutive failures before the breaker opens; default 5
	BreakerCooldown   time.Duration // open -> half-open delay; default 30s

	// HTTPClient replaces the default client; its Timeout is left alone.
	HTTPClient *http.Client
	Logger     *log.Logger
	Events     *otel.Logger
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// IsNotFound reports whether err carries a 404 status.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client performs rate-limited, breaker-guarded JSON requests against the
// backend.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[response]
	log     *log.Logger
	events  *otel.Logger
}

// response is what survives a round trip: status and (capped) body.
type response struct {
	url    string
	status int
	body   []byte
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 4
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithPrefix("fetch")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		log:     opts.Logger,
		events:  opts.Events,
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:    "backend",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller giving up is not evidence that the backend is down.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request. A non-nil body is JSON-encoded. Transport failures
// and 5xx responses count against the breaker; any non-2xx status comes back
// as *StatusError alongside the response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return response{}, fmt.Errorf("rate limiter: %w", err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return response{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("request failed: %w", err)
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
		if err != nil {
			return response{}, fmt.Errorf("read response: %w", err)
		}
		r := response{url: target, status: httpResp.StatusCode, body: data}
		if r.status >= http.StatusInternalServerError {
			return r, &StatusError{URL: target, StatusCode: r.status}
		}
		return r, nil
	})
	if err != nil {
		return resp, err
	}
	if resp.status < 200 || resp.status > 299 {
		return resp, &StatusError{URL: target, StatusCode: resp.status}
	}
	return resp, nil
}
