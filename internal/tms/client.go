// Package tms implements the client for the TIS-Online transport management
// API. Every call is a POST with the command and its arguments passed as
// query parameters; the body is empty and the answer is JSON.
package tms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

const (
	cmdMonitoringStats      = "getMonitoringStats"
	cmdRouteSheetsByDateOut = "getRouteListsByDateOut"
	cmdRouteSheetsByClose   = "getRouteLists"
	cmdOrders               = "getRequests"
)

var (
	errNotFound    = errors.New("resource not found")
	errRateLimited = errors.New("rate limited")
)

// Config is the shared transport configuration of a client. Token is the
// only field that differs between the per-worker copies of one collection
// run. The two backoff units exist so tests can shrink waits; production
// code leaves them at their defaults.
type Config struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	MaxAttempts   int
	RateRetryCap  int
	RetryUnit     time.Duration
	RateLimitUnit time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RateRetryCap <= 0 {
		c.RateRetryCap = 5
	}
	if c.RetryUnit <= 0 {
		c.RetryUnit = time.Second
	}
	if c.RateLimitUnit <= 0 {
		c.RateLimitUnit = 10 * time.Second
	}
	return c
}

// Client talks to the TMS API with a single credential.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithToken returns a copy of the client bound to another credential. The
// copy shares the transport configuration and the underlying HTTP client;
// the receiver is never mutated.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.cfg.Token = token
	return &clone
}

// MonitoringStats fetches telemetry for one vehicle over one window. The
// service answering 404 means the vehicle is not tracked there, which is a
// value (Found=false), not an error. Errors are terminal failures after the
// retry policy is exhausted.
func (c *Client) MonitoringStats(ctx context.Context, vehicleID int64, from, to time.Time) (MonitoringResult, error) {
	params := url.Values{}
	params.Set("idMO", strconv.FormatInt(vehicleID, 10))
	params.Set("fromDate", models.FormatDateTime(from))
	params.Set("toDate", models.FormatDateTime(to))

	var raw RawMonitoring
	err := c.command(ctx, cmdMonitoringStats, params, &raw)
	if errors.Is(err, errNotFound) {
		return MonitoringResult{}, nil
	}
	if err != nil {
		return MonitoringResult{}, err
	}
	return MonitoringResult{Found: true, Raw: &raw}, nil
}

// MonitoringResult is the tagged outcome of a monitoring fetch.
type MonitoringResult struct {
	Found bool
	Raw   *RawMonitoring
}

// RouteSheets fetches the route sheets whose departure date falls within
// [from, to]. Dates are inclusive and day-granular on the wire.
func (c *Client) RouteSheets(ctx context.Context, from, to time.Time) ([]RouteSheet, error) {
	return c.sheets(ctx, cmdRouteSheetsByDateOut, from, to)
}

// RouteSheetsByClose fetches closed route sheets filtered by close date.
// Only this legacy endpoint returns the glonassData aggregate.
func (c *Client) RouteSheetsByClose(ctx context.Context, from, to time.Time) ([]RouteSheet, error) {
	return c.sheets(ctx, cmdRouteSheetsByClose, from, to)
}

func (c *Client) sheets(ctx context.Context, command string, from, to time.Time) ([]RouteSheet, error) {
	params := url.Values{}
	params.Set("fromDate", models.FormatDate(from))
	params.Set("toDate", models.FormatDate(to))

	var resp sheetList
	if err := c.command(ctx, command, params, &resp); err != nil {
		return nil, err
	}
	zap.S().Debugw("fetched route sheets", "command", command, "count", len(resp.List))
	return resp.List, nil
}

// Orders fetches transport orders for a date range.
func (c *Client) Orders(ctx context.Context, from, to time.Time) ([]Order, error) {
	params := url.Values{}
	params.Set("fromDate", models.FormatDate(from))
	params.Set("toDate", models.FormatDate(to))

	var resp orderList
	if err := c.command(ctx, cmdOrders, params, &resp); err != nil {
		return nil, err
	}
	zap.S().Debugw("fetched orders", "count", len(resp.List))
	return resp.List, nil
}

// Ping verifies the credential with a minimal same-day route sheet request.
func (c *Client) Ping(ctx context.Context) error {
	now := time.Now()
	_, err := c.RouteSheets(ctx, now, now)
	return err
}

// command performs one logical API call under the retry policy. Transient
// failures retry up to MaxAttempts with exponential backoff. Rate limiting
// retries on its own linear schedule, counted separately, and does not
// consume attempts. A 404 maps to errNotFound without retrying, and a body
// that fails to decode fails immediately.
func (c *Client) command(ctx context.Context, command string, params url.Values, out any) error {
	q := url.Values{}
	q.Set("token", c.cfg.Token)
	q.Set("format", "json")
	q.Set("command", command)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	endpoint := c.cfg.BaseURL + "?" + q.Encode()

	var lastErr error
	attempt := 0
	rateRetries := 0
	for attempt < c.cfg.MaxAttempts {
		body, kind, err := c.post(ctx, endpoint)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("malformed response for %s: %w", command, err)
			}
			return nil
		}

		switch kind {
		case failureNotFound:
			return errNotFound
		case failureRateLimited:
			rateRetries++
			if rateRetries >= c.cfg.RateRetryCap {
				return fmt.Errorf("%s: %w %d times, giving up", command, errRateLimited, rateRetries)
			}
			wait := time.Duration(rateRetries) * c.cfg.RateLimitUnit
			zap.S().Warnw("rate limited by service, backing off", "command", command, "wait", wait, "retry", rateRetries)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			continue
		default:
			lastErr = err
			zap.S().Warnw("request failed", "command", command, "attempt", attempt+1, "error", err)
		}

		attempt++
		if attempt < c.cfg.MaxAttempts {
			backoff := c.cfg.RetryUnit * (1 << (attempt - 1))
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", command, c.cfg.MaxAttempts, lastErr)
}

type failure int

const (
	failureTransient failure = iota
	failureNotFound
	failureRateLimited
)

// post performs one HTTP round trip and classifies its outcome.
func (c *Client) post(ctx context.Context, endpoint string) ([]byte, failure, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, failureTransient, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, failureTransient, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, failureNotFound, errNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, failureRateLimited, errRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, failureTransient, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failureTransient, fmt.Errorf("reading response: %w", err)
	}
	return body, 0, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
