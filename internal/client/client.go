// internal/client/client.go

// Package client is the dashboard fetch layer: an HTTP client for the places
// API guarded by a circuit breaker, and a Session holding the working copy the
// discovery views are computed from.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
	"locbook/internal/logging"
	"locbook/internal/metrics"
)

const (
	breakerName     = "locbook-api"
	maxResponseSize = 16 << 20
)

// ErrInvalidConfig is returned when the config endpoint answers with
// something other than a usable configuration document
var ErrInvalidConfig = errors.New("invalid config document")

// StatusError is a non-2xx answer from the API
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

type response struct {
	body        []byte
	contentType string
}

// Client talks to the places API
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*response]
}

// New creates a client for the API rooted at baseURL. A nil httpClient gets a
// client with a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	metrics.RecordCircuitBreakerState(breakerName, gobreaker.StateClosed)

	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a missing place is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, place.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logging.With("client")
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.RecordCircuitBreakerState(name, to)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cb:      cb,
	}
}

// Places returns up to limit place summaries, newest first
func (c *Client) Places(ctx context.Context, limit int) ([]place.Place, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, "/api/places?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var page place.Page
	if err := json.Unmarshal(resp.body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode places: %w", err)
	}
	if page.Data == nil {
		page.Data = []place.Place{}
	}
	return page.Data, nil
}

// Place returns one hydrated place or place.ErrNotFound
func (c *Client) Place(ctx context.Context, id string) (*place.Place, error) {
	resp, err := c.get(ctx, "/api/places/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var p place.Place
	if err := json.Unmarshal(resp.body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode place %s: %w", id, err)
	}
	if p.Details == nil {
		p.Details = &place.Details{}
	}
	return &p, nil
}

// Config returns the stored configuration document. A response that is not
// JSON, or a document without HOME_CATEGORIES, yields ErrInvalidConfig.
func (c *Client) Config(ctx context.Context) (*siteconfig.Config, error) {
	resp, err := c.get(ctx, "/api/config")
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.contentType)
	if mediaType != "application/json" {
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidConfig, resp.contentType)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if home, ok := raw["HOME_CATEGORIES"]; !ok || string(home) == "null" {
		return nil, fmt.Errorf("%w: missing HOME_CATEGORIES", ErrInvalidConfig)
	}

	var cfg siteconfig.Config
	if err := json.Unmarshal(resp.body, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func (c *Client) get(ctx context.Context, path string) (*response, error) {
	resp, err := c.cb.Execute(func() (*response, error) {
		return c.do(ctx, path)
	})

	switch {
	case err == nil:
		metrics.RecordCircuitBreakerRequest(breakerName, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(breakerName, "rejected")
	default:
		metrics.RecordCircuitBreakerRequest(breakerName, "failure")
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, path string) (*response, error) {
	target := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: failed to read body: %w", target, err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", target, place.ErrNotFound)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, &StatusError{Code: res.StatusCode, URL: target}
	}

	return &response{body: body, contentType: res.Header.Get("Content-Type")}, nil
}
