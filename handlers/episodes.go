package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/catalog"
	"anivault/services/integrity"
)

type episodesCatalog interface {
	CreateEpisode(payload models.EpisodeCreate) (models.Episode, error)
	GetEpisode(id string) (models.Episode, error)
	UpdateEpisode(id string, payload models.EpisodeUpdate) (models.Episode, error)
	ListEpisodesByTitle(titleID string) ([]models.Episode, error)
}

type episodesIntegrity interface {
	DeleteEpisode(id string) error
}

var (
	_ episodesCatalog   = (*catalog.Service)(nil)
	_ episodesIntegrity = (*integrity.Service)(nil)
)

// EpisodesHandler serves the episode CRUD surface.
type EpisodesHandler struct {
	Catalog   episodesCatalog
	Integrity episodesIntegrity
}

func NewEpisodesHandler(catalogSvc episodesCatalog, integritySvc episodesIntegrity) *EpisodesHandler {
	return &EpisodesHandler{Catalog: catalogSvc, Integrity: integritySvc}
}

func (h *EpisodesHandler) ListByTitle(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.Catalog.ListEpisodesByTitle(mux.Vars(r)["titleID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, episodes)
}

func (h *EpisodesHandler) Get(w http.ResponseWriter, r *http.Request) {
	episode, err := h.Catalog.GetEpisode(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, episode)
}

func (h *EpisodesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.EpisodeCreate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	episode, err := h.Catalog.CreateEpisode(payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, episode)
}

func (h *EpisodesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.EpisodeUpdate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	episode, err := h.Catalog.UpdateEpisode(mux.Vars(r)["id"], payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, episode)
}

func (h *EpisodesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Integrity.DeleteEpisode(mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
