package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

// Provider implements tasks.Provider against the Notion REST API.
type Provider struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// Compile-time checks.
var (
	_ tasks.Provider        = (*Provider)(nil)
	_ tasks.SchemaValidator = (*Provider)(nil)
)

// NewProvider creates a new Notion task provider.
func NewProvider(cfg *Config, logger hclog.Logger) (*Provider, error) {
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notion provider config: %w", err)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Provider{
		config: cfg,
		client: cfg.NewHTTPClient(),
		logger: logger,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "notion"
}

// doRequest executes a request under the configured timeout, retrying rate
// limited, server and transport failures with exponential backoff. Every
// failure is returned as a *tasks.Error.
func (p *Provider) doRequest(ctx context.Context, op, method, path string, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &tasks.Error{Op: op, Err: err, Msg: "failed to marshal request body"}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.config.RetryDelay
	exp.MaxElapsedTime = 0
	b := &retryAfterBackOff{
		BackOff: backoff.WithMaxRetries(exp, uint64(p.config.MaxRetries)),
	}

	attempt := 0
	var lastErr error
	operation := func() error {
		attempt++
		err := p.send(ctx, op, method, path, payload, result, b)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		// A Retry-After past the deadline cannot be honored.
		if deadline, ok := ctx.Deadline(); ok && b.minimum > time.Until(deadline) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("retrying notion request",
			"op", op,
			"method", method,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
	if err == nil {
		return nil
	}

	var taskErr *tasks.Error
	if errors.As(err, &taskErr) {
		return err
	}

	// Context errors are returned unwrapped by the backoff loop.
	if errors.Is(lastErr, tasks.ErrRateLimited) {
		return lastErr
	}
	msg := "request canceled"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = fmt.Sprintf("request timed out after %s", p.config.Timeout)
	}
	return &tasks.Error{Op: op, Err: tasks.ErrRemoteUnavailable, Msg: msg}
}

// send performs a single HTTP round trip.
func (p *Provider) send(
	ctx context.Context,
	op, method, path string,
	payload []byte,
	result interface{},
	b *retryAfterBackOff,
) error {
	endpoint := p.config.BaseURL + path

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return &tasks.Error{Op: op, Err: err, Msg: "failed to create request"}
	}

	req.Header.Set("Notion-Version", p.config.Version)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("notion request failed",
			"op", op,
			"method", method,
			"path", path,
			"error", err,
		)
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		return &tasks.Error{Op: op, Err: tasks.ErrRemoteUnavailable, Msg: msg}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &tasks.Error{Op: op, Err: tasks.ErrRemoteUnavailable, Msg: "failed to read response"}
	}

	p.logger.Debug("notion request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			b.setMinimum(parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
		}
		return statusError(op, resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &tasks.Error{Op: op, Err: tasks.ErrRemoteRejected, Msg: "failed to decode response"}
		}
	}

	return nil
}

// statusError maps a non-2xx response to a task error.
func statusError(op string, status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Code
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}

	var sentinel error
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		sentinel = tasks.ErrRemoteUnauthorized
	case status == http.StatusNotFound:
		sentinel = tasks.ErrNotFound
	case status == http.StatusTooManyRequests:
		sentinel = tasks.ErrRateLimited
	case status >= 500:
		sentinel = tasks.ErrRemoteUnavailable
	default:
		sentinel = tasks.ErrRemoteRejected
		if apiErr.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, apiErr.Message)
		}
	}

	return &tasks.Error{Op: op, Err: sentinel, Msg: msg}
}

// retryable reports whether a failed request may be attempted again.
func retryable(err error) bool {
	return errors.Is(err, tasks.ErrRateLimited) ||
		errors.Is(err, tasks.ErrRemoteUnavailable)
}

// parseRetryAfter parses a Retry-After header given in seconds or as an
// HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	at, err := http.ParseTime(v)
	if err != nil || !at.After(now) {
		return 0
	}
	return at.Sub(now)
}

// retryAfterBackOff never waits less than a minimum requested by the remote
// service for the next retry.
type retryAfterBackOff struct {
	backoff.BackOff
	minimum time.Duration
}

func (b *retryAfterBackOff) setMinimum(d time.Duration) {
	b.minimum = d
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if next < b.minimum {
		next = b.minimum
	}
	b.minimum = 0
	return next
}
