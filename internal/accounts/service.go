// internal/accounts/service.go
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"signupgw/pkg/coreapi"
	"signupgw/pkg/problems"
	"signupgw/pkg/sessions"
)

// Input is one signup/login attempt, either password-based or an SSO
// assertion from a completed provider callback.
type Input struct {
	Email    string
	Password string
	Provider string // "" (password), "github", "google"
	IDToken  string // google ID token; falls back to the session's
}

// Service merges account creation and login: it resolves a trusted email,
// then either logs the caller into the existing CoreAPI account or creates
// a new one.
type Service struct {
	log            *zap.SugaredLogger
	api            *coreapi.Client
	google         GoogleVerifier
	github         *GitHubEmails
	defaultCountry string
}

func NewService(api *coreapi.Client, google GoogleVerifier, github *GitHubEmails, defaultCountry string, log *zap.SugaredLogger) *Service {
	return &Service{log: log, api: api, google: google, github: github, defaultCountry: defaultCountry}
}

// SignIn returns the account plus whether it was created by this call.
// countryISO comes from the edge (GeoIP header); failures there degrade to
// the configured default country rather than failing the signup.
func (s *Service) SignIn(ctx context.Context, sess *sessions.Session, in Input, countryISO string) (*coreapi.User, bool, error) {
	email := strings.TrimSpace(in.Email)
	sso := in.Provider != ""

	switch in.Provider {
	case "google":
		idToken := in.IDToken
		if idToken == "" {
			idToken = sess.IDToken
		}
		if idToken == "" {
			return nil, false, &problems.ValidationError{Field: "id_token", Reason: "required for google sign-in"}
		}
		verified, err := s.google.VerifyEmail(ctx, idToken)
		if err != nil {
			return nil, false, err
		}
		if email != "" && !strings.EqualFold(verified, email) {
			return nil, false, fmt.Errorf("%w: claimed %q, verified %q", problems.ErrForgedIdentity, email, verified)
		}
		email = verified
	case "github":
		resolved, err := s.github.Resolve(ctx, sess)
		if err != nil {
			return nil, false, err
		}
		email = resolved
	case "":
		if err := ValidateEmail(email); err != nil {
			return nil, false, err
		}
		if err := ValidatePassword(in.Password); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, &problems.ValidationError{Field: "provider", Reason: "unknown provider"}
	}

	existing, err := s.api.UserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if sso {
			// A verified SSO identity owns its email; no password check.
			return existing, false, nil
		}
		u, ok, err := s.api.Login(ctx, email, in.Password)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, problems.ErrAuthFailed
		}
		return u, false, nil
	}

	password := in.Password
	if sso {
		password = randomPassword()
	}
	u, err := s.api.CreateUser(ctx, coreapi.CreateUserRequest{
		Username:  email,
		Email:     email,
		Password:  password,
		CountryID: s.resolveCountry(ctx, countryISO),
	})
	var apiErr *coreapi.APIError
	if errors.As(err, &apiErr) {
		return nil, false, &problems.ValidationError{Field: "account", Reason: apiErr.Message}
	}
	if err != nil {
		return nil, false, err
	}

	// SSO providers hand us a display name the create endpoint has no field
	// for; patch it on afterwards. Best-effort: the account exists either way.
	if sso && sess.ProfileName != "" {
		first, last := splitName(sess.ProfileName)
		if patched, err := s.api.PatchUser(ctx, u.ID, coreapi.PatchUserRequest{
			FirstName: first,
			LastName:  last,
		}); err != nil {
			s.log.Warnw("profile name patch failed", "user_id", u.ID, "err", err)
		} else {
			u = patched
		}
	}

	s.log.Infow("account created", "user_id", u.ID, "sso", sso)
	return u, true, nil
}

// splitName treats the first word as the given name and the rest as the
// family name; single-word names land entirely in the first field.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// resolveCountry maps an ISO code to a CoreAPI country id, degrading to
// the default country and finally to "unset" on any failure.
func (s *Service) resolveCountry(ctx context.Context, iso string) int {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	if iso == "" {
		iso = s.defaultCountry
	}
	c, err := s.api.CountryByISO(ctx, iso)
	if err != nil || c == nil {
		if iso == s.defaultCountry {
			return 0
		}
		if c, err = s.api.CountryByISO(ctx, s.defaultCountry); err != nil || c == nil {
			return 0
		}
	}
	return c.ID
}
