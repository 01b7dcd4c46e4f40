package ors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"roadtrip-meal-service/internal/domain"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"
)

// Options tunes the shared OpenRouteService client. Zero values fall back to
// the defaults used in production.
type Options struct {
	BaseURL     string
	Profile     string
	Timeout     time.Duration
	Retries     int
	BackoffBase time.Duration
	HTTPClient  *http.Client
}

// Client is the HTTP session shared by the ORS geocoder and router.
// It is safe for concurrent use.
type Client struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	profile     string
	retries     int
	backoffBase time.Duration
}

func NewClient(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	c := &Client{
		session:     opts.HTTPClient,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		profile:     opts.Profile,
		retries:     opts.Retries,
		backoffBase: opts.BackoffBase,
	}
	if c.session == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.session = &http.Client{Timeout: timeout}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.profile == "" {
		c.profile = DefaultProfile
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.backoffBase <= 0 {
		c.backoffBase = 500 * time.Millisecond
	}

	return c, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) up to c.retries times with exponential backoff starting at
// c.backoffBase, while respecting context cancellation.
func (c *Client) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	maxAttempts := c.retries + 1
	backoff := c.backoffBase

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// unavailable wraps a transport failure as ErrProviderUnavailable, keeping
// context.DeadlineExceeded visible for callers that report timeouts.
func unavailable(op string, err error) error {
	var netErr net.Error
	if !errors.Is(err, context.DeadlineExceeded) && errors.As(err, &netErr) && netErr.Timeout() {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrProviderUnavailable, err)
}
