// internal/gateway/app.go
package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"signupgw/internal/accounts"
	"signupgw/internal/provisioning"
	"signupgw/pkg/audit"
	"signupgw/pkg/config"
	"signupgw/pkg/middleware"
	"signupgw/pkg/providers"
	"signupgw/pkg/sessions"
)

// App bundles the HTTP surface's shared dependencies.
type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	accounts *accounts.Service
	pipeline *provisioning.Pipeline
	store    sessions.Store
	rec      *audit.Recorder
	oauth    map[string]*oauth2.Config
	specs    map[string]providers.Spec
}

func NewApp(cfg config.Config, acc *accounts.Service, pipe *provisioning.Pipeline, store sessions.Store, rec *audit.Recorder, specs map[string]providers.Spec, log *zap.SugaredLogger) *App {
	a := &App{
		log:      log,
		cfg:      cfg,
		accounts: acc,
		pipeline: pipe,
		store:    store,
		rec:      rec,
		specs:    specs,
		oauth:    map[string]*oauth2.Config{},
	}
	for name, spec := range specs {
		id, secret := cfg.GitHubClientID, cfg.GitHubClientSecret
		if name == "google" {
			id, secret = cfg.GoogleClientID, cfg.GoogleClientSecret
		}
		if id == "" {
			continue
		}
		a.oauth[name] = &oauth2.Config{
			ClientID:     id,
			ClientSecret: secret,
			Endpoint:     oauth2.Endpoint{AuthURL: spec.AuthURL, TokenURL: spec.TokenURL},
			RedirectURL:  cfg.BasePublicURL + "/auth/" + name + "/callback",
			Scopes:       spec.Scopes,
		}
	}
	return a
}

// Handler builds the router with the full middleware chain.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing())
	r.Use(middleware.WithSession(a.store, a.cfg.SecureCookies))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", a.handleRegister)
		ar.Post("/login", a.handleLogin)
		ar.Post("/logout", a.handleLogout)
		ar.Get("/session", a.handleSession)
		ar.Get("/{provider}", a.handleOAuthStart)
		ar.Get("/{provider}/callback", a.handleOAuthCallback)
	})

	return r
}
