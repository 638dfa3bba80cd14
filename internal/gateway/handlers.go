// internal/gateway/handlers.go
package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"signupgw/internal/accounts"
	"signupgw/internal/provisioning"
	"signupgw/pkg/audit"
	"signupgw/pkg/metrics"
	"signupgw/pkg/middleware"
)

type registerRequest struct {
	AccountName  string `json:"account_name"`
	Origin       string `json:"origin"`
	DemoID       string `json:"demo_id"`
	CampaignName string `json:"campaign_name"`
	QueryString  string `json:"query_string"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Provider     string `json:"provider"`
	IDToken      string `json:"id_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
}

// countryISO reads the edge-provided GeoIP country header; absence is fine,
// the account layer degrades to the configured default.
func countryISO(r *http.Request) string {
	if v := r.Header.Get("CF-IPCountry"); v != "" {
		return v
	}
	return r.Header.Get("X-Country-Code")
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func method(provider string) string {
	if provider == "" {
		return "password"
	}
	return provider
}

// handleRegister signs the caller in (creating the account if needed) and
// runs the provisioning pipeline for the new subscription.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFrom(ctx)

	var body registerRequest
	if err := decodeBody(r, &body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "malformed request body", nil)
		return
	}
	provider := body.Provider
	if provider == "" && sess.Provider != "" {
		provider = sess.Provider
	}

	user, created, err := a.accounts.SignIn(ctx, sess, accounts.Input{
		Email:    body.Email,
		Password: body.Password,
		Provider: provider,
		IDToken:  body.IDToken,
	}, countryISO(r))
	if err != nil {
		metrics.Logins.WithLabelValues(method(provider), "failed").Inc()
		a.writeError(w, r, err)
		return
	}

	sso := provider != ""
	sess.UserID = user.ID
	sess.Email = user.Email
	sess.Provider = provider
	sess.SSOSignup = sso
	sess.FirstRegistration = created
	if err := a.store.Put(ctx, sess); err != nil {
		a.log.Warnw("session save failed", "err", err)
	}
	if created {
		metrics.Signups.WithLabelValues(method(provider)).Inc()
	}
	metrics.Logins.WithLabelValues(method(provider), "ok").Inc()
	a.rec.Record(ctx, audit.Event{
		Kind: "signup", Email: user.Email, UserID: user.ID,
		RequestID: middleware.RequestIDFrom(ctx),
		Detail:    map[string]any{"created": created, "method": method(provider)},
	})

	result, err := a.pipeline.Run(ctx, provisioning.Request{
		AccountName:       body.AccountName,
		OriginURL:         body.Origin,
		DemoID:            body.DemoID,
		CampaignName:      body.CampaignName,
		QueryString:       body.QueryString,
		UserID:            user.ID,
		Email:             user.Email,
		SSOSignup:         sso,
		FirstRegistration: created,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if result.User == nil {
		result.User = user
	}
	writeEnvelope(w, http.StatusOK, true, "", result)
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFrom(ctx)

	var body loginRequest
	if err := decodeBody(r, &body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "malformed request body", nil)
		return
	}
	provider := body.Provider
	if provider == "" && sess.Provider != "" {
		provider = sess.Provider
	}

	user, created, err := a.accounts.SignIn(ctx, sess, accounts.Input{
		Email:    body.Email,
		Password: body.Password,
		Provider: provider,
		IDToken:  body.IDToken,
	}, countryISO(r))
	if err != nil {
		metrics.Logins.WithLabelValues(method(provider), "failed").Inc()
		a.writeError(w, r, err)
		return
	}

	sess.UserID = user.ID
	sess.Email = user.Email
	sess.Provider = provider
	sess.SSOSignup = provider != ""
	sess.FirstRegistration = created
	if err := a.store.Put(ctx, sess); err != nil {
		a.log.Warnw("session save failed", "err", err)
	}
	metrics.Logins.WithLabelValues(method(provider), "ok").Inc()
	a.rec.Record(ctx, audit.Event{
		Kind: "login", Email: user.Email, UserID: user.ID,
		RequestID: middleware.RequestIDFrom(ctx),
		Detail:    map[string]any{"method": method(provider)},
	})

	writeEnvelope(w, http.StatusOK, true, "", map[string]any{"authenticated": true, "user": user})
}

// handleLogout destroys the session. A store failure is reported in the
// message but does not fail the request.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFrom(ctx)

	msg := ""
	if err := a.store.Destroy(ctx, sess.ID); err != nil {
		a.log.Warnw("session destroy failed", "session", sess.ID, "err", err)
		msg = "session destroy failed"
	}
	http.SetCookie(w, &http.Cookie{Name: middleware.SessionCookie, Value: "", Path: "/", MaxAge: -1})
	a.rec.Record(ctx, audit.Event{Kind: "logout", Email: sess.Email, UserID: sess.UserID,
		RequestID: middleware.RequestIDFrom(ctx)})
	writeEnvelope(w, http.StatusOK, true, msg, nil)
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	writeEnvelope(w, http.StatusOK, true, "", map[string]any{
		"authenticated": sess.LoggedIn(),
		"user_id":       sess.UserID,
		"email":         sess.Email,
		"provider":      sess.Provider,
	})
}
