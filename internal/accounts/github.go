package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"signupgw/pkg/problems"
	"signupgw/pkg/sessions"
)

// GitHubEmails resolves the email for a GitHub-SSO signup. The profile
// stored by the OAuth callback is tried first; accounts without a public
// email need a second call to the private email list.
type GitHubEmails struct {
	httpc     *http.Client
	emailsURL string
}

func NewGitHubEmails(httpc *http.Client, emailsURL string) *GitHubEmails {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &GitHubEmails{httpc: httpc, emailsURL: emailsURL}
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Resolve prefers the session profile's public email, then the primary
// verified address from the email list, then the first verified address.
func (g *GitHubEmails) Resolve(ctx context.Context, sess *sessions.Session) (string, error) {
	if sess.ProfileEmail != "" {
		return sess.ProfileEmail, nil
	}
	if sess.OAuthToken == "" {
		return "", &problems.ValidationError{Field: "email", Reason: "no github profile in session"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.emailsURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+sess.OAuthToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("github email lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github email lookup: status %d", resp.StatusCode)
	}
	var list []githubEmail
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&list); err != nil {
		return "", fmt.Errorf("github email lookup: %w", err)
	}

	for _, e := range list {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range list {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", &problems.ValidationError{Field: "email", Reason: "github account has no verified email"}
}
