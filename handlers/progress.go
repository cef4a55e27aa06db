package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/integrity"
	"anivault/services/progress"
)

type progressService interface {
	ListByUser(userID, titleID string) ([]models.WatchProgress, error)
	Get(userID, episodeID string) (models.WatchProgress, error)
	Update(userID, episodeID string, payload models.ProgressUpdate) (models.WatchProgress, error)
	Remove(userID, episodeID string) (models.WatchProgress, error)
}

type progressIntegrity interface {
	CreateProgress(userID string, payload models.ProgressCreate) (models.WatchProgress, error)
}

var (
	_ progressService   = (*progress.Service)(nil)
	_ progressIntegrity = (*integrity.Service)(nil)
)

// ProgressHandler serves a user's watch progress.
type ProgressHandler struct {
	Service   progressService
	Integrity progressIntegrity
}

func NewProgressHandler(service progressService, integritySvc progressIntegrity) *ProgressHandler {
	return &ProgressHandler{Service: service, Integrity: integritySvc}
}

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	titleID := strings.TrimSpace(r.URL.Query().Get("title_id"))
	entries, err := h.Service.ListByUser(mux.Vars(r)["userID"], titleID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *ProgressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.ProgressCreate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.Integrity.CreateProgress(mux.Vars(r)["userID"], payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := h.Service.Get(vars["userID"], vars["episodeID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.ProgressUpdate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	vars := mux.Vars(r)
	entry, err := h.Service.Update(vars["userID"], vars["episodeID"], payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.Service.Remove(vars["userID"], vars["episodeID"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
