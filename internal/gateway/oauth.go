// internal/gateway/oauth.go
package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"signupgw/pkg/middleware"
)

// handleOAuthStart redirects to the provider's consent page with a fresh
// state nonce bound to the session.
func (a *App) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	conf, ok := a.oauth[provider]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "unknown provider", nil)
		return
	}
	sess := middleware.SessionFrom(r.Context())
	sess.OAuthState = uuid.NewString()
	if err := a.store.Put(r.Context(), sess); err != nil {
		a.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, conf.AuthCodeURL(sess.OAuthState), http.StatusFound)
}

// handleOAuthCallback exchanges the code and stashes the provider identity
// in the session for the subsequent register/login request.
func (a *App) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	conf, ok := a.oauth[provider]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "unknown provider", nil)
		return
	}
	sess := middleware.SessionFrom(ctx)

	if state := r.URL.Query().Get("state"); state == "" || state != sess.OAuthState {
		writeEnvelope(w, http.StatusBadRequest, false, "oauth state mismatch", nil)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeEnvelope(w, http.StatusBadRequest, false, "missing code", nil)
		return
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		a.log.Warnw("oauth exchange failed", "provider", provider, "err", err)
		writeEnvelope(w, http.StatusBadGateway, false, "token exchange failed", nil)
		return
	}

	sess.Provider = provider
	sess.OAuthState = ""
	sess.OAuthToken = token.AccessToken
	switch provider {
	case "google":
		if idt, ok := token.Extra("id_token").(string); ok {
			sess.IDToken = idt
		}
	case "github":
		if err := a.fetchGitHubProfile(r, token.AccessToken); err != nil {
			a.log.Warnw("github profile fetch failed", "err", err)
		}
	}
	if err := a.store.Put(ctx, sess); err != nil {
		a.writeError(w, r, err)
		return
	}

	writeEnvelope(w, http.StatusOK, true, "", map[string]any{
		"provider": provider,
		"login":    sess.ProfileLogin,
		"email":    sess.ProfileEmail,
	})
}

// fetchGitHubProfile fills the session with the public profile. A missing
// public email is fine; the account layer falls back to the email list.
func (a *App) fetchGitHubProfile(r *http.Request, accessToken string) error {
	spec := a.specs["github"]
	sess := middleware.SessionFrom(r.Context())

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, spec.ProfileURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var profile struct {
		Login string `json:"login"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profile); err != nil {
		return err
	}
	sess.ProfileLogin = profile.Login
	sess.ProfileEmail = profile.Email
	sess.ProfileName = profile.Name
	return nil
}
