package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"signupgw/internal/provisioning"
	"signupgw/pkg/coreapi"
	"signupgw/pkg/problems"
)

// Envelope is the fixed JSON shape every front-end response uses. The
// status field mirrors the outer HTTP status.
type Envelope struct {
	Success bool    `json:"success"`
	Status  int     `json:"status"`
	Message *string `json:"message"`
	Result  any     `json:"result"`
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, result any) {
	var msg *string
	if message != "" {
		msg = &message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: success, Status: status, Message: msg, Result: result})
}

// writeError translates the error taxonomy to envelopes. An auth failure
// keeps success=true so clients can tell "wrong credentials" from "bad
// request"; pipeline and upstream failures surface the failing call's
// message in a 500.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr    *problems.ValidationError
		stepErr *provisioning.StepError
		upErr   *coreapi.UpstreamError
		apiErr  *coreapi.APIError
	)
	switch {
	case errors.As(err, &vErr):
		writeEnvelope(w, http.StatusBadRequest, false, vErr.Error(), nil)
	case errors.Is(err, problems.ErrAuthFailed):
		writeEnvelope(w, http.StatusBadRequest, true, "authentication failed", map[string]any{"authenticated": false})
	case errors.Is(err, problems.ErrForgedIdentity):
		writeEnvelope(w, http.StatusUnauthorized, false, "identity verification failed", nil)
	case errors.As(err, &stepErr):
		a.log.Errorw("pipeline error", "step", stepErr.Step, "err", stepErr.Err)
		writeEnvelope(w, http.StatusInternalServerError, false, stepErr.Error(), nil)
	case errors.As(err, &upErr):
		a.log.Errorw("upstream error", "err", err)
		writeEnvelope(w, http.StatusInternalServerError, false, upErr.Error(), nil)
	case errors.As(err, &apiErr):
		writeEnvelope(w, http.StatusBadRequest, false, apiErr.Message, nil)
	default:
		a.log.Errorw("unhandled error", "err", err)
		writeEnvelope(w, http.StatusInternalServerError, false, "internal error", nil)
	}
}
