package coreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"signupgw/pkg/config"
)

const (
	apiVersion = "/v1"
	userAgent  = "signup-gateway/1.0"
)

// Client is the authenticated transport for CoreAPI. Every call injects the
// service bearer token from the TokenCache and the identifying user agent.
//
// Statuses below 400 plus exactly 400 and 404 are domain-level results and
// are returned to the caller (as decoded bodies or *APIError); everything
// else, including network failures, raises *UpstreamError.
type Client struct {
	log   *zap.SugaredLogger
	base  string
	httpc *http.Client
	cache *TokenCache
}

// NewClient wires a transport against baseURL. httpc carries the fixed
// per-call timeout; nil means http.DefaultClient.
func NewClient(baseURL string, httpc *http.Client, cache *TokenCache, log *zap.SugaredLogger) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{
		log:   log,
		base:  strings.TrimRight(baseURL, "/"),
		httpc: httpc,
		cache: cache,
	}
}

// FromConfig builds the client plus its token cache from service config.
func FromConfig(cfg config.Config, log *zap.SugaredLogger) (*Client, error) {
	httpc := &http.Client{Timeout: cfg.CoreAPITimeout}
	cache := NewTokenCache(cfg.TokenCacheDir, httpc, log)
	if err := cache.Configure(Credentials{
		BaseURL:      cfg.CoreAPIBaseURL,
		ClientID:     cfg.CoreAPIClientID,
		ClientSecret: cfg.CoreAPIClientSecret,
		Scopes:       cfg.CoreAPIScopes,
	}); err != nil {
		return nil, err
	}
	return NewClient(cfg.CoreAPIBaseURL, httpc, cache, log), nil
}

func (c *Client) Get(ctx context.Context, path string, out any) (int, error) {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) (int, error) {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) (int, error) {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// do issues one call under the version prefix. For 400/404 the upstream
// message is surfaced via *APIError and out is left untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	tok, err := c.cache.Token(ctx)
	if err != nil {
		return 0, err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, &UpstreamError{Err: fmt.Errorf("encode request: %w", err)}
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+apiVersion+path, rd)
	if err != nil {
		return 0, &UpstreamError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	status := resp.StatusCode
	switch {
	case status < 400:
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return status, &UpstreamError{Status: status, Message: "undecodable response body", Err: err}
			}
		}
		return status, nil
	case status == 400, status == 404:
		return status, &APIError{Status: status, Message: upstreamMessage(raw, status)}
	default:
		return status, &UpstreamError{Status: status, Message: upstreamMessage(raw, status)}
	}
}

func upstreamMessage(raw []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}
