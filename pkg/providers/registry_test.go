package providers

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestLoadDirOverlay(t *testing.T) {
	dir := t.TempDir()
	override := `name: github
auth_url: https://ghe.internal/login/oauth/authorize
token_url: https://ghe.internal/login/oauth/access_token
emails_url: https://ghe.internal/api/v3/user/emails
scopes: [user:email]
`
	extra := `name: okta
auth_url: https://okta.example/oauth2/v1/authorize
token_url: https://okta.example/oauth2/v1/token
scopes: [openid, email]
`
	if err := os.WriteFile(filepath.Join(dir, "github.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "okta.yml"), []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	specs, err := LoadDir(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got := specs["github"].AuthURL; got != "https://ghe.internal/login/oauth/authorize" {
		t.Errorf("github auth_url = %q, want the override", got)
	}
	if _, ok := specs["okta"]; !ok {
		t.Error("okta spec not loaded")
	}
	// Builtins the dir doesn't touch survive.
	if specs["google"].TokenURL == "" {
		t.Error("google builtin lost")
	}
}

func TestLoadDirEmptyIsBuiltin(t *testing.T) {
	specs, err := LoadDir("", zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(specs) != len(Builtin()) {
		t.Errorf("specs = %d, want builtin set", len(specs))
	}
}

func TestLoadDirSkipsNamelessSpec(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("auth_url: https://x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	specs, err := LoadDir(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(specs) != len(Builtin()) {
		t.Errorf("nameless spec changed the set: %v", specs)
	}
}
