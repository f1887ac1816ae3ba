// internal/server/handlers/respond.go

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"locbook/internal/logging"
	"locbook/internal/validation"
)

const maxBodyBytes = 1 << 20

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, r *http.Request, code int, message string, err error) {
	if err != nil && code >= 500 {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", code).Str("path", r.URL.Path).Msg(message)
	}

	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "Validation failed",
		"fields": verr.FieldMessages(),
	})
}

// respondWithServiceError maps domain errors to status codes
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, notFound error, what string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondWithValidationError(w, verr)
	case notFound != nil && errors.Is(err, notFound):
		respondWithError(w, r, http.StatusNotFound, what+" not found", nil)
	default:
		respondWithError(w, r, http.StatusInternalServerError, "Failed to process "+what, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}
