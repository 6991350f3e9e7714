// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package spotify implements a client for the Spotify Web API endpoints
// Melograph consumes: the recently-played window and batch audio features.
//
// Failures are classified into three sentinel errors so callers can decide
// whether to retry:
//
//   - ErrAuth: the access token is missing, expired, or lacks scope
//   - ErrTransient: rate limiting, 5xx responses, and network failures
//   - ErrMalformed: the response body did not parse
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/melograph/melograph/internal/config"
	"github.com/melograph/melograph/internal/metrics"
)

// Classification sentinels. Wrap with fmt.Errorf("...: %w", ErrX); test with
// errors.Is.
var (
	ErrAuth      = errors.New("spotify: authorization failed")
	ErrTransient = errors.New("spotify: transient failure")
	ErrMalformed = errors.New("spotify: malformed response")
)

// DefaultBaseURL is the production Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// featureBatchSize is the maximum track IDs per audio-features request.
const featureBatchSize = 100

// Client calls the Spotify Web API. All requests pass through a token-bucket
// rate limiter so bursts of ingestion work stay under the API quota.
type Client struct {
	baseURL     string
	accessToken string
	windowSize  int
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Client from configuration.
func NewClient(cfg *config.SpotifyConfig) *Client {
	return &Client{
		baseURL:     DefaultBaseURL,
		accessToken: cfg.AccessToken,
		windowSize:  cfg.WindowSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), 1),
	}
}

// NewClientWithBaseURL creates a Client pointed at a non-default API root.
// Used by tests with an httptest server.
func NewClientWithBaseURL(cfg *config.SpotifyConfig, baseURL string) *Client {
	c := NewClient(cfg)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// RecentlyPlayed fetches the most recent playback window. When after is
// non-zero only plays strictly newer than it are requested. Items are
// returned exactly as the API orders them, newest first.
func (c *Client) RecentlyPlayed(ctx context.Context, after time.Time) ([]PlayItem, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", c.windowSize))
	if !after.IsZero() {
		params.Set("after", fmt.Sprintf("%d", after.UnixMilli()))
	}

	start := time.Now()
	var resp RecentlyPlayedResponse
	err := c.getJSON(ctx, "/me/player/recently-played?"+params.Encode(), &resp)
	metrics.RecordSpotifyRequest("recently_played", time.Since(start), errClass(err))
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AudioFeaturesBatch fetches analysis attributes for the given track IDs,
// batching requests at the API limit. Tracks the API has no analysis for are
// absent from the result map.
func (c *Client) AudioFeaturesBatch(ctx context.Context, ids []string) (map[string]AudioFeatures, error) {
	features := make(map[string]AudioFeatures, len(ids))

	for start := 0; start < len(ids); start += featureBatchSize {
		end := start + featureBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("ids", strings.Join(ids[start:end], ","))

		reqStart := time.Now()
		var resp AudioFeaturesResponse
		err := c.getJSON(ctx, "/audio-features?"+params.Encode(), &resp)
		metrics.RecordSpotifyRequest("audio_features", time.Since(reqStart), errClass(err))
		if err != nil {
			return nil, err
		}

		for _, f := range resp.AudioFeatures {
			if f == nil || f.ID == "" {
				continue
			}
			features[f.ID] = *f
		}
	}

	return features, nil
}

// getJSON performs a rate-limited GET and decodes the JSON body into result.
func (c *Client) getJSON(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// classifyStatus maps an HTTP status to a classification sentinel.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrAuth, status)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrTransient, status)
	default:
		return fmt.Errorf("%w: unexpected HTTP %d", ErrMalformed, status)
	}
}

// errClass names the classification for metrics labels.
func errClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "transient"
	}
}
