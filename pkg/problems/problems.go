// pkg/problems/problems.go
package problems

import (
	"errors"
	"fmt"
)

// The gateway's error vocabulary, shared by the account and provisioning
// layers and translated to response envelopes at the HTTP boundary.

// ValidationError is user-correctable bad input (HTTP 400, success=false).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrAuthFailed marks a well-formed login with wrong credentials. It maps
// to HTTP 400 with success=true and authenticated=false so clients can
// tell it apart from a malformed request.
var ErrAuthFailed = errors.New("authentication failed")

// ErrForgedIdentity marks an SSO assertion whose verified email does not
// match the email the caller claimed.
var ErrForgedIdentity = errors.New("identity token does not match claimed email")
