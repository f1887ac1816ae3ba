// internal/server/handlers/discover.go

package handlers

import (
	"errors"
	"net/http"

	"locbook/internal/discovery"
	"locbook/internal/service/snapshot"
)

// Discovery computes dashboard views from a working copy of the catalogue
type Discovery interface {
	Home() ([]discovery.Section, error)
	Search(filter discovery.FilterState) (discovery.View, error)
}

// DiscoverHandler serves the home and search views
type DiscoverHandler struct {
	discovery Discovery
}

// NewDiscoverHandler creates a new discover handler
func NewDiscoverHandler(d Discovery) *DiscoverHandler {
	return &DiscoverHandler{
		discovery: d,
	}
}

type homeResponse struct {
	Sections []discovery.Section `json:"sections"`
}

// Home returns the grouped homepage sections
func (h *DiscoverHandler) Home(w http.ResponseWriter, r *http.Request) {
	sections, err := h.discovery.Home()
	if err != nil {
		h.respondWithViewError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, homeResponse{Sections: sections})
}

// Search returns the filtered view. vibe and category may repeat.
func (h *DiscoverHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := discovery.NewFilterState(q.Get("q"), q["vibe"], q["category"])

	view, err := h.discovery.Search(filter)
	if err != nil {
		h.respondWithViewError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *DiscoverHandler) respondWithViewError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, snapshot.ErrNotReady) {
		w.Header().Set("Retry-After", "5")
		respondWithError(w, r, http.StatusServiceUnavailable, "Catalogue is still loading", nil)
		return
	}
	respondWithError(w, r, http.StatusInternalServerError, "Failed to build view", err)
}
