// internal/server/handlers/health.go

package handlers

import "net/http"

// Health reports that the API is up
func Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
