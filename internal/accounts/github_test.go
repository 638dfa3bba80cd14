package accounts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"signupgw/pkg/problems"
	"signupgw/pkg/sessions"
)

func emailsServer(t *testing.T, body string) *GitHubEmails {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gh-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewGitHubEmails(nil, srv.URL)
}

func TestGitHubResolveProfileFirst(t *testing.T) {
	// With a public profile email no email-list call happens at all.
	g := NewGitHubEmails(nil, "http://127.0.0.1:1")
	got, err := g.Resolve(context.Background(), &sessions.Session{ProfileEmail: "public@example.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "public@example.com" {
		t.Errorf("email = %q", got)
	}
}

func TestGitHubResolvePrefersPrimaryVerified(t *testing.T) {
	g := emailsServer(t, `[
		{"email":"old@example.com","primary":false,"verified":true},
		{"email":"main@example.com","primary":true,"verified":true}
	]`)
	got, err := g.Resolve(context.Background(), &sessions.Session{OAuthToken: "gh-token"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "main@example.com" {
		t.Errorf("email = %q, want the primary verified one", got)
	}
}

func TestGitHubResolveFallsBackToVerified(t *testing.T) {
	g := emailsServer(t, `[
		{"email":"unverified@example.com","primary":true,"verified":false},
		{"email":"spare@example.com","primary":false,"verified":true}
	]`)
	got, err := g.Resolve(context.Background(), &sessions.Session{OAuthToken: "gh-token"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "spare@example.com" {
		t.Errorf("email = %q, want the verified fallback", got)
	}
}

func TestGitHubResolveNoVerifiedEmail(t *testing.T) {
	g := emailsServer(t, `[{"email":"x@example.com","primary":true,"verified":false}]`)
	_, err := g.Resolve(context.Background(), &sessions.Session{OAuthToken: "gh-token"})
	var vErr *problems.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestGitHubResolveNoSessionToken(t *testing.T) {
	g := NewGitHubEmails(nil, "http://127.0.0.1:1")
	_, err := g.Resolve(context.Background(), &sessions.Session{})
	var vErr *problems.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
