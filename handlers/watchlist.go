package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/integrity"
	"anivault/services/watchlist"
)

type watchlistService interface {
	List(userID string) ([]models.WatchlistEntry, error)
	Get(userID, titleID string) (models.WatchlistEntry, error)
	Remove(userID, titleID string) (models.WatchlistEntry, error)
}

type watchlistIntegrity interface {
	AddToWatchlist(userID, titleID string) (models.WatchlistEntry, error)
}

var (
	_ watchlistService   = (*watchlist.Service)(nil)
	_ watchlistIntegrity = (*integrity.Service)(nil)
)

// WatchlistHandler serves a user's watchlist.
type WatchlistHandler struct {
	Service   watchlistService
	Integrity watchlistIntegrity
}

func NewWatchlistHandler(service watchlistService, integritySvc watchlistIntegrity) *WatchlistHandler {
	return &WatchlistHandler{Service: service, Integrity: integritySvc}
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.List(mux.Vars(r)["userID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TitleID string `json:"title_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.Integrity.AddToWatchlist(mux.Vars(r)["userID"], body.TitleID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := h.Service.Get(vars["userID"], vars["titleID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.Service.Remove(vars["userID"], vars["titleID"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
