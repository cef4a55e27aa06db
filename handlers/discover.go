package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/discover"
)

type discoverService interface {
	BySeries(ctx context.Context, seriesName string) ([]models.Title, error)
	Featured(ctx context.Context, limit int) ([]models.Title, error)
	Trending(ctx context.Context, limit int) ([]models.Title, error)
	Completion(ctx context.Context, userID, titleID string) (models.CompletionState, error)
}

var _ discoverService = (*discover.Service)(nil)

// DiscoverHandler serves the derived catalog views: featured and trending
// shelves, season groupings, and per-user completion.
type DiscoverHandler struct {
	Service discoverService
}

func NewDiscoverHandler(service discoverService) *DiscoverHandler {
	return &DiscoverHandler{Service: service}
}

func (h *DiscoverHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, err)
		return
	}

	titles, err := h.Service.Featured(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, titles)
}

func (h *DiscoverHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, err)
		return
	}

	titles, err := h.Service.Trending(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, titles)
}

func (h *DiscoverHandler) BySeries(w http.ResponseWriter, r *http.Request) {
	titles, err := h.Service.BySeries(r.Context(), mux.Vars(r)["seriesName"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, titles)
}

func (h *DiscoverHandler) Completion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	state, err := h.Service.Completion(r.Context(), vars["userID"], vars["titleID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}
