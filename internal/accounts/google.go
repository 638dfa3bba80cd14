package accounts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"signupgw/pkg/problems"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

const googleJWKSTTL = 6 * time.Hour

// GoogleVerifier checks a Google ID token and returns its verified email.
type GoogleVerifier interface {
	VerifyEmail(ctx context.Context, idToken string) (string, error)
}

// googleVerifier validates ID tokens against Google's JWKS with the
// configured OAuth client ID as audience. The key set is cached.
type googleVerifier struct {
	clientID string
	jwksURL  string

	mu      sync.RWMutex
	set     jwk.Set
	expires time.Time
}

func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleVerifier{clientID: clientID, jwksURL: googleJWKSURL}
}

func (g *googleVerifier) keys(ctx context.Context) (jwk.Set, error) {
	g.mu.RLock()
	if g.set != nil && time.Now().Before(g.expires) {
		set := g.set
		g.mu.RUnlock()
		return set, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.set != nil && time.Now().Before(g.expires) {
		return g.set, nil
	}
	set, err := jwk.Fetch(ctx, g.jwksURL)
	if err != nil {
		return nil, err
	}
	g.set = set
	g.expires = time.Now().Add(googleJWKSTTL)
	return set, nil
}

// VerifyEmail treats any signature, audience, issuer, or expiry defect as a
// forged identity: the assertion cannot be trusted either way.
func (g *googleVerifier) VerifyEmail(ctx context.Context, idToken string) (string, error) {
	set, err := g.keys(ctx)
	if err != nil {
		return "", fmt.Errorf("google jwks fetch: %w", err)
	}
	tok, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithAudience(g.clientID),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", problems.ErrForgedIdentity, err)
	}
	iss := tok.Issuer()
	if iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return "", fmt.Errorf("%w: unexpected issuer %q", problems.ErrForgedIdentity, iss)
	}
	email, ok := tok.Get("email")
	if !ok {
		return "", fmt.Errorf("%w: token carries no email claim", problems.ErrForgedIdentity)
	}
	s, _ := email.(string)
	if s == "" {
		return "", fmt.Errorf("%w: token carries no email claim", problems.ErrForgedIdentity)
	}
	return s, nil
}
