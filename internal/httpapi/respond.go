package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authflow"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	if status >= http.StatusInternalServerError {
		description = ""
	}
	writeJSON(w, status, errorResponse{Error: code, Description: description})
}

// writeFlowError maps engine and registry errors to HTTP responses.
func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errFlowNotFound):
		writeError(w, http.StatusNotFound, "flow_not_found", err.Error())
	case errors.Is(err, errTooManyFlows):
		writeError(w, http.StatusServiceUnavailable, "too_many_flows", err.Error())
	case errors.Is(err, authflow.ErrFlowBusy):
		writeError(w, http.StatusConflict, "flow_busy", err.Error())
	case errors.Is(err, authflow.ErrFlowClosed):
		writeError(w, http.StatusGone, "flow_closed", err.Error())
	case errors.Is(err, authflow.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, "unknown_provider", err.Error())
	case errors.Is(err, authflow.ErrSessionRequired):
		writeError(w, http.StatusBadRequest, "session_required", err.Error())
	case errors.Is(err, authflow.ErrSessionExpired):
		writeError(w, http.StatusBadRequest, "session_expired", err.Error())
	case errors.Is(err, authflow.ErrEngineNotReady):
		writeError(w, http.StatusServiceUnavailable, "engine_closed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
