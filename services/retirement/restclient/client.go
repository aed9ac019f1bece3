// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package restclient is the shared HTTP layer for every integrated
// service: one OAuth2 client-credentials token per client, uniform JSON
// request shaping, UTF-8 body capture on errors, and the two-tier retry
// policy (exponential backoff for transient failures, short constant
// delay for gateway timeouts).
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// OAuthTokenPath is the LMS identity provider's token endpoint, relative
// to the LMS base URL.
const OAuthTokenPath = "/oauth2/access_token"

const defaultCallTimeout = 2 * time.Minute

// Client is an authenticated, retrying HTTP client rooted at one service
// base URL. Construct one per service per invocation.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	logger       *slog.Logger
	retry        RetryConfig
	gatewayRetry GatewayRetryConfig
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetryConfig overrides the transient-failure retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithGatewayRetryConfig overrides the 504 retry policy.
func WithGatewayRetryConfig(cfg GatewayRetryConfig) Option {
	return func(c *Client) { c.gatewayRetry = cfg }
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests and
// by unauthenticated providers that bring their own auth scheme.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New builds a client for apiBaseURL, authenticating with a JWT obtained
// from the identity provider at oauthBaseURL via the client-credentials
// grant. The token is fetched eagerly so a bad secret surfaces as a setup
// failure before any retirement work begins.
func New(ctx context.Context, oauthBaseURL, apiBaseURL, clientID, clientSecret string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBaseURL)
	if err != nil {
		return nil, err
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     strings.TrimSuffix(oauthBaseURL, "/") + OAuthTokenPath,
		EndpointParams: url.Values{
			"token_type": {"jwt"},
		},
	}
	if _, err := cc.Token(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenAcquisition, err)
	}

	httpClient := cc.Client(ctx)
	httpClient.Timeout = defaultCallTimeout

	c := &Client{
		baseURL:      base,
		httpClient:   httpClient,
		logger:       slog.Default(),
		retry:        DefaultRetryConfig(),
		gatewayRetry: DefaultGatewayRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewUnauthenticated builds a client without the OAuth2 token exchange.
// Providers that use API keys or basic auth layer their own headers on
// top via per-request options.
func NewUnauthenticated(apiBaseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:      base,
		httpClient:   &http.Client{Timeout: defaultCallTimeout},
		logger:       slog.Default(),
		retry:        DefaultRetryConfig(),
		gatewayRetry: DefaultGatewayRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrInvalidBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return base, nil
}

// Request describes one remote call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Header entries are set on every attempt.
	Header http.Header
	// Out, when non-nil, receives the JSON-decoded 2xx response body.
	Out any
}

// Do executes the request under the client's retry policies and returns
// the raw response text. Transient failures (429, non-504 5xx) retry with
// exponential backoff until the elapsed budget runs out; 504s retry on
// the constant-delay budget; everything else surfaces immediately.
func (c *Client) Do(ctx context.Context, req Request) (string, error) {
	backoff := c.retry.InitialBackoff
	gatewayAttempts := 0
	start := time.Now()

	for {
		text, err := c.doOnce(ctx, req)
		if err == nil {
			return text, nil
		}

		var wait time.Duration
		switch {
		case IsGatewayTimeout(err):
			gatewayAttempts++
			if gatewayAttempts >= c.gatewayRetry.MaxAttempts {
				return "", err
			}
			wait = c.gatewayRetry.Delay
		case IsRetryable(err):
			var next time.Duration
			wait, next = c.retry.next(backoff)
			if time.Since(start)+wait > c.retry.MaxElapsed {
				return "", err
			}
			backoff = next
		default:
			return "", err
		}

		c.logger.Info("retrying request",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) doOnce(ctx context.Context, req Request) (string, error) {
	target := *c.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + req.Path
	if req.Query != nil {
		target.RawQuery = req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return "", fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), bodyReader)
	if err != nil {
		return "", err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	text := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       text,
			URL:        target.String(),
		}
		c.logger.Error("request failed",
			slog.String("method", req.Method),
			slog.String("url", target.String()),
			slog.Int("status", resp.StatusCode),
			slog.String("body", text),
		)
		return "", httpErr
	}

	if req.Out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, req.Out); err != nil {
			return "", fmt.Errorf("decoding response from %s: %w", target.String(), err)
		}
	}
	return text, nil
}

// Post is shorthand for a JSON POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) (string, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Out: out})
}

// Put is shorthand for a JSON PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) (string, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Out: out})
}

// Patch is shorthand for a JSON PATCH.
func (c *Client) Patch(ctx context.Context, path string, body, out any) (string, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body, Out: out})
}

// Get is shorthand for a GET with query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (string, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Out: out})
}
