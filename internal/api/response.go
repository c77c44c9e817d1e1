package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zerolog.Ctx(r.Context()).Error().Stack().Err(err).Msg("encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, r *http.Request, status int, message string) {
	jsonResponse(w, r, status, errorResponse{Error: message, Code: status})
}

// internalError logs err and replies with a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	zerolog.Ctx(r.Context()).Error().Stack().Err(err).Msg(message)
	jsonError(w, r, http.StatusInternalServerError, message)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
