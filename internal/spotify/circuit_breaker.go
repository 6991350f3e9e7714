// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/melograph/melograph/internal/logging"
)

// CircuitBreakerClient wraps Client with a circuit breaker so a dead or
// rate-limited API stops consuming retries quickly.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should mock the underlying client rather than the breaker.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
}

// NewCircuitBreakerClient wraps the given client.
//
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client *Client) *CircuitBreakerClient {
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "spotify-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
		},

		// Auth errors open no circuits. A bad token fails every call and
		// would otherwise mask the real problem behind ErrOpenState.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAuth)
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb}
}

// RecentlyPlayed calls the wrapped client through the breaker.
func (c *CircuitBreakerClient) RecentlyPlayed(ctx context.Context, after time.Time) ([]PlayItem, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.RecentlyPlayed(ctx, after)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	items, ok := result.([]PlayItem)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected breaker result type", ErrMalformed)
	}
	return items, nil
}

// AudioFeaturesBatch calls the wrapped client through the breaker.
func (c *CircuitBreakerClient) AudioFeaturesBatch(ctx context.Context, ids []string) (map[string]AudioFeatures, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.AudioFeaturesBatch(ctx, ids)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	features, ok := result.(map[string]AudioFeatures)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected breaker result type", ErrMalformed)
	}
	return features, nil
}

// wrapBreakerErr maps breaker rejections into the transient class so the
// ingestion retry policy treats them uniformly.
func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
