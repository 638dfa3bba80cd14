// cmd/signup-gateway/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signupgw/internal/accounts"
	"signupgw/internal/gateway"
	"signupgw/internal/provisioning"
	"signupgw/pkg/audit"
	"signupgw/pkg/config"
	"signupgw/pkg/coreapi"
	"signupgw/pkg/db"
	"signupgw/pkg/logger"
	"signupgw/pkg/providers"
	"signupgw/pkg/sessions"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rec := audit.NewRecorder(pool, log)
	if err := rec.EnsureSchema(context.Background()); err != nil {
		log.Fatalw("audit schema", "err", err)
	}

	var store sessions.Store
	if rdb := db.MustRedis(cfg, log); rdb != nil {
		store = sessions.NewRedisStore(rdb, cfg.SessionTTL, log)
	} else {
		store = sessions.NewMemoryStore(cfg.SessionTTL)
	}

	api, err := coreapi.FromConfig(cfg, log)
	if err != nil {
		log.Fatalw("coreapi client", "err", err)
	}

	specs, err := providers.LoadDir(cfg.ProviderSpecDir, log)
	if err != nil {
		log.Fatalw("provider specs", "err", err)
	}

	acc := accounts.NewService(
		api,
		accounts.NewGoogleVerifier(cfg.GoogleClientID),
		accounts.NewGitHubEmails(nil, specs["github"].EmailsURL),
		cfg.DefaultCountry,
		log,
	)
	pipe := provisioning.New(api, rec, cfg.CNameSuffix, log)
	app := gateway.NewApp(cfg, acc, pipe, store, rec, specs, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Handler()}
	go func() {
		log.Infow("signup-gateway listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("signup-gateway stopped")
}
