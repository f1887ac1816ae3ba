// internal/server/handlers/place.go

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"locbook/internal/domain/place"
)

// PlaceHandler handles place-related HTTP requests
type PlaceHandler struct {
	service place.Service
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(service place.Service) *PlaceHandler {
	return &PlaceHandler{
		service: service,
	}
}

// ListPlaces returns one page of place summaries
func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid limit", nil)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid offset", nil)
		return
	}

	page, err := h.service.List(r.Context(), place.ListQuery{
		Limit:  limit,
		Offset: offset,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to list places", err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// GetPlace returns a hydrated place
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, place.ErrNotFound, "Place")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// CreatePlace adds a place
func (h *PlaceHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var patch place.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.service.Create(r.Context(), patch)
	if err != nil {
		respondWithServiceError(w, r, err, nil, "Place")
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

// UpdatePlace replaces the editable fields of a place
func (h *PlaceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	var patch place.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondWithServiceError(w, r, err, place.ErrNotFound, "Place")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// DeletePlace removes a place
func (h *PlaceHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithServiceError(w, r, err, place.ErrNotFound, "Place")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns the catalogue summary
func (h *PlaceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
