// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across source adapters.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryPolicy describes how a request is retried. Adapters parameterize one
// policy each instead of hand-rolling their own loops.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first (default 3).
	MaxRetries int

	// BaseDelay is the wait before the first retry (default 2s).
	BaseDelay time.Duration

	// Exponential doubles the delay on each attempt when set; otherwise
	// the delay between attempts is fixed at BaseDelay.
	Exponential bool
}

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
)

// retryable reports whether the response status warrants another attempt:
// rate limiting or a server-side failure.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Do executes the request, retrying transport errors and retryable HTTP
// statuses (429 and 5xx) per the policy. The response body of a failed
// attempt is drained and closed before sleeping. If the context is
// cancelled during a backoff wait, Do returns ctx.Err(). After exhausting
// retries the last response (or transport error) is returned so the caller
// can inspect it.
func (p RetryPolicy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}

		if attempt >= maxRetries {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}

		if err == nil {
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		delay := baseDelay
		if p.Exponential {
			delay = time.Duration(math.Pow(2, float64(attempt))) * baseDelay
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
