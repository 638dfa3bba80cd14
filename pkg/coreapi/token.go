package coreapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"signupgw/pkg/metrics"
)

const cacheFileName = "coreapi-token.json"

// Credentials identify this service against CoreAPI's token endpoint.
// They are immutable for the lifetime of a TokenCache.
type Credentials struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// cachedToken is the on-disk cache slot. The hash field ties the entry to
// the credentials that produced it so a credential rotation between runs
// invalidates the file.
type cachedToken struct {
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	AccessToken string    `json:"access_token"`
	Hash        string    `json:"hash"`
	Expiry      time.Time `json:"expiry"`
}

// TokenCache owns the service bearer token: acquisition via the
// client-credentials grant, disk persistence across restarts, and
// expiry-based refresh. Concurrent cold-start callers coalesce into a
// single upstream request.
type TokenCache struct {
	log   *zap.SugaredLogger
	path  string
	httpc *http.Client

	mu         sync.Mutex
	group      singleflight.Group
	creds      Credentials
	configured bool
	obtained   bool
	tok        *cachedToken
}

// NewTokenCache uses one cache file per process under dir. httpc bounds the
// token-endpoint call; pass nil for http.DefaultClient.
func NewTokenCache(dir string, httpc *http.Client, log *zap.SugaredLogger) *TokenCache {
	return &TokenCache{
		log:   log,
		path:  filepath.Join(dir, cacheFileName),
		httpc: httpc,
	}
}

// Configure sets the credentials exactly once. Calling it again, or after a
// token has already been obtained, fails with ConfigurationError.
func (c *TokenCache) Configure(creds Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.obtained {
		return &ConfigurationError{Reason: "credentials cannot change after a token has been obtained"}
	}
	if c.configured {
		return &ConfigurationError{Reason: "credentials already configured"}
	}
	if creds.BaseURL == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return &ConfigurationError{Reason: "base URL, client id and client secret are required"}
	}
	c.creds = creds
	c.configured = true
	return nil
}

// Token returns a valid access token, loading the cache file or performing
// a client-credentials grant as needed. Expiry is checked against the wall
// clock with no early-refresh margin.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.configured {
		c.mu.Unlock()
		return "", &ConfigurationError{Reason: "credentials not configured"}
	}
	if c.tok != nil && time.Now().Before(c.tok.Expiry) {
		t := c.tok.AccessToken
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("token", func() (any, error) {
		return c.acquire(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(*cachedToken).AccessToken, nil
}

func (c *TokenCache) acquire(ctx context.Context) (*cachedToken, error) {
	if tok := c.loadFile(); tok != nil {
		c.adopt(tok)
		return tok, nil
	}

	cc := clientcredentials.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		TokenURL:     strings.TrimRight(c.creds.BaseURL, "/") + "/oauth/token",
		Scopes:       c.creds.Scopes,
	}
	if c.httpc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpc)
	}
	t, err := cc.Token(ctx)
	if err != nil {
		return nil, &TokenAcquisitionError{Err: err}
	}
	metrics.TokenRefreshes.Inc()

	expiresIn := int64(0)
	switch v := t.Extra("expires_in").(type) {
	case float64:
		expiresIn = int64(v)
	case json.Number:
		expiresIn, _ = v.Int64()
	}
	expiry := t.Expiry
	if expiry.IsZero() && expiresIn > 0 {
		expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	if expiresIn == 0 && !expiry.IsZero() {
		expiresIn = int64(time.Until(expiry).Seconds())
	}
	tok := &cachedToken{
		TokenType:   t.TokenType,
		ExpiresIn:   expiresIn,
		AccessToken: t.AccessToken,
		Hash:        c.hash(),
		Expiry:      expiry,
	}
	c.persist(tok)
	c.adopt(tok)
	return tok, nil
}

// loadFile reads and validates the cache slot. A defective file (unparsable,
// incomplete, or written under different credentials) is deleted so the
// caller falls through to a fresh grant. An expired but otherwise valid file
// is left in place; the fresh grant overwrites it.
func (c *TokenCache) loadFile() *cachedToken {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var tok cachedToken
	if err := json.Unmarshal(b, &tok); err != nil {
		c.discard("unparsable")
		return nil
	}
	if tok.AccessToken == "" || tok.TokenType == "" || tok.ExpiresIn == 0 {
		c.discard("missing fields")
		return nil
	}
	if tok.Hash != c.hash() {
		c.discard("credential hash mismatch")
		return nil
	}
	if tok.Expiry.IsZero() || !time.Now().Before(tok.Expiry) {
		return nil
	}
	return &tok
}

func (c *TokenCache) persist(tok *cachedToken) {
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		c.log.Warnw("token cache write failed", "path", c.path, "err", err)
	}
}

func (c *TokenCache) adopt(tok *cachedToken) {
	c.mu.Lock()
	c.tok = tok
	c.obtained = true
	c.mu.Unlock()
}

func (c *TokenCache) discard(reason string) {
	_ = os.Remove(c.path)
	c.log.Warnw("token cache discarded", "path", c.path, "reason", reason)
}

func (c *TokenCache) hash() string {
	h := sha256.New()
	h.Write([]byte(c.creds.BaseURL))
	h.Write([]byte{0})
	h.Write([]byte(c.creds.ClientID))
	h.Write([]byte{0})
	h.Write([]byte(c.creds.ClientSecret))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(c.creds.Scopes, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
