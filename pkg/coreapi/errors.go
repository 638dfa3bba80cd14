package coreapi

import "fmt"

// ConfigurationError signals misuse of the client itself, e.g. configuring
// credentials twice.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "coreapi: " + e.Reason }

// TokenAcquisitionError wraps a failed client-credentials grant.
type TokenAcquisitionError struct {
	Err error
}

func (e *TokenAcquisitionError) Error() string {
	return fmt.Sprintf("coreapi: token acquisition failed: %v", e.Err)
}
func (e *TokenAcquisitionError) Unwrap() error { return e.Err }

// UpstreamError is a transport-level failure: network error, or any status
// the client does not treat as a domain-level result (5xx, 401, 403, ...).
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("coreapi: %v", e.Err)
	}
	return fmt.Sprintf("coreapi: upstream status %d: %s", e.Status, e.Message)
}
func (e *UpstreamError) Unwrap() error { return e.Err }

// APIError is a domain-level rejection CoreAPI expressed as a 400 or 404.
// The transport hands these back to callers instead of failing so they can
// distinguish "the API said no" from "the API is down".
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coreapi: api status %d: %s", e.Status, e.Message)
}
