package ece

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Admin API paths for the two infrastructure resources.
const (
	pathAllocators = "api/v1/platform/infrastructure/allocators"
	pathProxies    = "api/v1/platform/infrastructure/proxies"
)

// maxResponseBytes caps upstream body reads. An ECE installation with
// thousands of instances stays well under this.
const maxResponseBytes = 32 * 1024 * 1024

// Options configures a Client. APIKey takes precedence over basic auth when
// both are set.
type Options struct {
	BaseURL            string
	Username           string
	Password           string
	APIKey             string
	InsecureSkipVerify bool
}

// Client fetches the allocator and proxy documents from one ECE installation.
// It holds no cross-call state beyond connection reuse and is safe for
// concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
}

// New builds a Client for the given options. The returned client never
// retries; retry and deadline policy belong to the caller.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("ece: base url is required")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	return &Client{
		http: &http.Client{
			Transport: &authRoundTripper{base: transport, opts: opts},
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}, nil
}

// authRoundTripper injects the Authorization header into every outgoing
// request: "ApiKey <key>" when an API key is configured, HTTP basic auth
// otherwise.
type authRoundTripper struct {
	base http.RoundTripper
	opts Options
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.opts.APIKey != "" {
		req.Header.Set("Authorization", "ApiKey "+t.opts.APIKey)
	} else {
		req.SetBasicAuth(t.opts.Username, t.opts.Password)
	}
	return t.base.RoundTrip(req)
}

// FetchAllocators retrieves the allocator collection, with nested instances
// and pending plans.
func (c *Client) FetchAllocators(ctx context.Context) (*AllocatorsDocument, error) {
	var doc AllocatorsDocument
	if err := c.getJSON(ctx, pathAllocators, &doc); err != nil {
		return nil, fmt.Errorf("fetch allocators: %w", err)
	}
	return &doc, nil
}

// FetchProxies retrieves the proxy collection.
func (c *Client) FetchProxies(ctx context.Context) (*ProxiesDocument, error) {
	var doc ProxiesDocument
	if err := c.getJSON(ctx, pathProxies, &doc); err != nil {
		return nil, fmt.Errorf("fetch proxies: %w", err)
	}
	return &doc, nil
}

// getJSON performs one authenticated GET and decodes the body into v.
// Every failure wraps one of the package error kinds.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	url := c.baseURL + "/" + path
	slog.Debug("ece: fetching", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", kindOf(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", kindOf(err), err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
