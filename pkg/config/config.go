// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Public base URL of this gateway (used to build OAuth redirect URIs).
	BasePublicURL string

	// CoreAPI service-to-service credentials (client-credentials grant).
	CoreAPIBaseURL      string
	CoreAPIClientID     string
	CoreAPIClientSecret string
	CoreAPIScopes       []string
	CoreAPITimeout      time.Duration
	TokenCacheDir       string

	// SSO providers
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	ProviderSpecDir    string

	// Sessions
	SessionTTL    time.Duration
	SecureCookies bool

	// Provisioning defaults
	CNameSuffix    string
	DefaultCountry string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                 env("SGW_ENV", "dev"),
		HTTPAddr:            env("SGW_HTTP_ADDR", ":8080"),
		BasePublicURL:       env("BASE_PUBLIC_URL", "http://localhost:8080"),
		CoreAPIBaseURL:      env("COREAPI_BASE_URL", ""),
		CoreAPIClientID:     env("COREAPI_CLIENT_ID", ""),
		CoreAPIClientSecret: env("COREAPI_CLIENT_SECRET", ""),
		CoreAPIScopes:       envList("COREAPI_SCOPES", "account_admin"),
		CoreAPITimeout:      envDur("COREAPI_TIMEOUT_SEC", 10) * time.Second,
		TokenCacheDir:       env("TOKEN_CACHE_DIR", os.TempDir()),
		GoogleClientID:      env("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  env("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:      env("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:  env("GITHUB_CLIENT_SECRET", ""),
		ProviderSpecDir:     env("PROVIDER_SPEC_DIR", ""),
		SessionTTL:          envDur("SESSION_TTL_MIN", 12*60) * time.Minute,
		SecureCookies:       envBool("SECURE_COOKIES", false),
		CNameSuffix:         env("CNAME_SUFFIX", ".cdn.imgeng.in"),
		DefaultCountry:      env("DEFAULT_COUNTRY", "US"),
		RedisURL:            env("REDIS_URL", ""),
		DatabaseURL:         env("DATABASE_URL", ""),
	}
	if cfg.CoreAPIBaseURL == "" {
		log.Println("[WARN] COREAPI_BASE_URL not set — outbound provisioning calls will fail")
	}
	if cfg.RedisURL == "" {
		log.Println("[WARN] REDIS_URL not set — using in-memory session store for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
func envList(k, def string) []string {
	parts := strings.Split(env(k, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
