package sessions

import "time"

// Session is the per-browser state the gateway keeps between the OAuth
// redirect, the callback, and the eventual signup/login request.
type Session struct {
	ID     string `json:"id"`
	UserID int    `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`

	// SSO state
	Provider          string `json:"provider,omitempty"` // "github" | "google" | ""
	SSOSignup         bool   `json:"sso_signup,omitempty"`
	FirstRegistration bool   `json:"first_registration,omitempty"`
	OAuthState        string `json:"oauth_state,omitempty"`
	OAuthToken        string `json:"oauth_token,omitempty"` // provider access token (github email lookup)
	IDToken           string `json:"id_token,omitempty"`    // google id_token from the code exchange

	// Profile claimed by the provider callback
	ProfileLogin string `json:"profile_login,omitempty"`
	ProfileEmail string `json:"profile_email,omitempty"`
	ProfileName  string `json:"profile_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// LoggedIn reports whether the session is bound to a CoreAPI user.
func (s *Session) LoggedIn() bool { return s != nil && s.UserID != 0 }
