package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"signupgw/pkg/coreapi"
	"signupgw/pkg/problems"
	"signupgw/pkg/sessions"
)

// fakeDirectory plays the CoreAPI user directory: a fixed set of existing
// accounts, a password check, and a record of created users.
type fakeDirectory struct {
	mu       sync.Mutex
	users    map[string]coreapi.User // by email
	password string                  // accepted by /users/login
	created  []coreapi.CreateUserRequest
	patched  []coreapi.PatchUserRequest
}

func (f *fakeDirectory) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		u, known := f.users[body["username"]]
		okPassword := body["password"] == f.password
		f.mu.Unlock()
		if !known || !okPassword {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(u)
	})
	mux.HandleFunc("/v1/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// The search DSL arrives percent-encoded inside the raw query.
			raw := r.URL.RawQuery
			f.mu.Lock()
			var list []coreapi.User
			for email, u := range f.users {
				if strings.Contains(raw, strings.ReplaceAll(email, "@", "%40")) {
					list = append(list, u)
				}
			}
			f.mu.Unlock()
			if list == nil {
				list = []coreapi.User{}
			}
			_ = json.NewEncoder(w).Encode(list)
		case http.MethodPost:
			var req coreapi.CreateUserRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.mu.Lock()
			f.created = append(f.created, req)
			id := 100 + len(f.created)
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(coreapi.User{ID: id, Username: req.Username, Email: req.Email, CountryID: req.CountryID})
		}
	})
	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.NotFound(w, r)
			return
		}
		var req coreapi.PatchUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.patched = append(f.patched, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(coreapi.User{ID: 101, FirstName: req.FirstName, LastName: req.LastName})
	})
	mux.HandleFunc("/v1/countries", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "iso=DE") {
			_, _ = w.Write([]byte(`[{"id":49,"iso":"DE","name":"Germany"}]`))
			return
		}
		if strings.Contains(r.URL.RawQuery, "iso=US") {
			_, _ = w.Write([]byte(`[{"id":1,"iso":"US","name":"United States"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	return mux
}

// stubVerifier returns a fixed verified email, or an error.
type stubVerifier struct {
	email string
	err   error
}

func (s stubVerifier) VerifyEmail(ctx context.Context, idToken string) (string, error) {
	return s.email, s.err
}

func newTestService(t *testing.T, dir *fakeDirectory, google GoogleVerifier) *Service {
	t.Helper()
	if dir.users == nil {
		dir.users = map[string]coreapi.User{}
	}
	srv := httptest.NewServer(dir.handler())
	t.Cleanup(srv.Close)

	log := zap.NewNop().Sugar()
	cache := coreapi.NewTokenCache(t.TempDir(), nil, log)
	if err := cache.Configure(coreapi.Credentials{BaseURL: srv.URL, ClientID: "id", ClientSecret: "sec"}); err != nil {
		t.Fatal(err)
	}
	api := coreapi.NewClient(srv.URL, nil, cache, log)
	return NewService(api, google, NewGitHubEmails(nil, srv.URL+"/github/emails"), "US", log)
}

func TestSignInPasswordNewAccount(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{})

	u, created, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Email: "new@example.com", Password: "hunter22",
	}, "DE")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !created {
		t.Error("created = false for a new account")
	}
	if u.Email != "new@example.com" || u.Username != "new@example.com" {
		t.Errorf("user = %+v", u)
	}
	if len(dir.created) != 1 {
		t.Fatalf("created %d users", len(dir.created))
	}
	if dir.created[0].Password != "hunter22" {
		t.Errorf("stored password = %q", dir.created[0].Password)
	}
	if dir.created[0].CountryID != 49 {
		t.Errorf("country id = %d, want the geo-resolved one", dir.created[0].CountryID)
	}
}

func TestSignInPasswordExisting(t *testing.T) {
	dir := &fakeDirectory{
		users:    map[string]coreapi.User{"old@example.com": {ID: 7, Email: "old@example.com", Username: "old@example.com"}},
		password: "correct-horse",
	}
	svc := newTestService(t, dir, stubVerifier{})

	u, created, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Email: "old@example.com", Password: "correct-horse",
	}, "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if created {
		t.Error("created = true for an existing account")
	}
	if u.ID != 7 {
		t.Errorf("user id = %d", u.ID)
	}
	if len(dir.created) != 0 {
		t.Error("existing account was re-created")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	dir := &fakeDirectory{
		users:    map[string]coreapi.User{"old@example.com": {ID: 7, Email: "old@example.com"}},
		password: "correct-horse",
	}
	svc := newTestService(t, dir, stubVerifier{})

	_, _, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Email: "old@example.com", Password: "wrong-horse",
	}, "")
	if !errors.Is(err, problems.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if len(dir.created) != 0 {
		t.Error("failed login created an account")
	}
}

func TestSignInPasswordValidation(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{})

	cases := []Input{
		{Email: "not-an-email", Password: "hunter22"},
		{Email: "a@b.com", Password: "pw"},
	}
	for _, in := range cases {
		_, _, err := svc.SignIn(context.Background(), &sessions.Session{}, in, "")
		var vErr *problems.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("SignIn(%+v) = %v, want ValidationError", in, err)
		}
	}
	if len(dir.created) != 0 {
		t.Error("invalid input created an account")
	}
}

func TestSignInGoogleNewAccount(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{email: "sso@example.com"})

	u, created, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Provider: "google", IDToken: "jwt", Email: "sso@example.com",
	}, "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !created || u.Email != "sso@example.com" {
		t.Errorf("created=%v user=%+v", created, u)
	}
	// SSO accounts get a generated password meeting the local policy.
	if len(dir.created) != 1 {
		t.Fatalf("created %d users", len(dir.created))
	}
	if err := ValidatePassword(dir.created[0].Password); err != nil {
		t.Errorf("generated password %q invalid: %v", dir.created[0].Password, err)
	}
}

func TestSignInGoogleForgedEmail(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{email: "real@example.com"})

	_, _, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Provider: "google", IDToken: "jwt", Email: "victim@example.com",
	}, "")
	if !errors.Is(err, problems.ErrForgedIdentity) {
		t.Fatalf("err = %v, want ErrForgedIdentity", err)
	}
	if len(dir.created) != 0 {
		t.Error("forged identity created an account")
	}
}

func TestSignInGoogleExistingNoPasswordCheck(t *testing.T) {
	// The existing account's password is unknown to the SSO caller; a
	// verified identity must log in without one.
	dir := &fakeDirectory{
		users:    map[string]coreapi.User{"sso@example.com": {ID: 9, Email: "sso@example.com"}},
		password: "never-supplied",
	}
	svc := newTestService(t, dir, stubVerifier{email: "sso@example.com"})

	u, created, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Provider: "google", IDToken: "jwt",
	}, "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if created || u.ID != 9 {
		t.Errorf("created=%v user=%+v", created, u)
	}
}

func TestSignInGoogleTokenFromSession(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{email: "sso@example.com"})

	sess := &sessions.Session{IDToken: "session-jwt"}
	if _, _, err := svc.SignIn(context.Background(), sess, Input{Provider: "google"}, ""); err != nil {
		t.Fatalf("SignIn with session token: %v", err)
	}

	_, _, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{Provider: "google"}, "")
	var vErr *problems.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("SignIn without any token = %v, want ValidationError", err)
	}
}

func TestSignInGitHubUsesProfileEmail(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{})

	sess := &sessions.Session{ProfileEmail: "gh@example.com"}
	u, created, err := svc.SignIn(context.Background(), sess, Input{Provider: "github"}, "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !created || u.Email != "gh@example.com" {
		t.Errorf("created=%v user=%+v", created, u)
	}
}

func TestSignInSSOPatchesProfileName(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{})

	sess := &sessions.Session{ProfileEmail: "gh@example.com", ProfileName: "Ada Lovelace"}
	u, _, err := svc.SignIn(context.Background(), sess, Input{Provider: "github"}, "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if len(dir.patched) != 1 {
		t.Fatalf("patched %d times, want 1", len(dir.patched))
	}
	if dir.patched[0].FirstName != "Ada" || dir.patched[0].LastName != "Lovelace" {
		t.Errorf("patch = %+v", dir.patched[0])
	}
	if u.FirstName != "Ada" || u.LastName != "Lovelace" {
		t.Errorf("returned user = %+v, want the patched record", u)
	}
}

func TestSignInPasswordNeverPatches(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{})

	// A profile name lingering in the session must not leak onto a
	// password-created account.
	sess := &sessions.Session{ProfileName: "Stale Name"}
	if _, _, err := svc.SignIn(context.Background(), sess, Input{
		Email: "new@example.com", Password: "hunter22",
	}, ""); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if len(dir.patched) != 0 {
		t.Errorf("password signup patched the profile: %+v", dir.patched)
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, first, last string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Ada", "Ada", ""},
		{"Ada  King Lovelace", "Ada", "King Lovelace"},
		{"  Ada Lovelace  ", "Ada", "Lovelace"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := splitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Errorf("splitName(%q) = %q/%q, want %q/%q", tc.in, first, last, tc.first, tc.last)
		}
	}
}

func TestSignInUnknownProvider(t *testing.T) {
	svc := newTestService(t, &fakeDirectory{}, stubVerifier{})
	_, _, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{Provider: "myspace"}, "")
	var vErr *problems.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSignInCountryFallback(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, stubVerifier{})

	// "XX" resolves to nothing; the default country "US" takes over.
	_, _, err := svc.SignIn(context.Background(), &sessions.Session{}, Input{
		Email: "geo@example.com", Password: "hunter22",
	}, "XX")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if dir.created[0].CountryID != 1 {
		t.Errorf("country id = %d, want default-country fallback", dir.created[0].CountryID)
	}
}
