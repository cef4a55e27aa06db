package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/catalog"
	"anivault/services/integrity"
)

type titlesCatalog interface {
	CreateTitle(payload models.TitleCreate) (models.Title, error)
	GetTitle(id string) (models.Title, error)
	UpdateTitle(id string, payload models.TitleUpdate) (models.Title, error)
	ListTitles(ctx context.Context, filters models.TitleFilters) ([]models.Title, error)
}

type titlesIntegrity interface {
	DeleteTitle(id string) error
}

var (
	_ titlesCatalog   = (*catalog.Service)(nil)
	_ titlesIntegrity = (*integrity.Service)(nil)
)

// TitlesHandler serves the title CRUD surface.
type TitlesHandler struct {
	Catalog   titlesCatalog
	Integrity titlesIntegrity
}

func NewTitlesHandler(catalogSvc titlesCatalog, integritySvc titlesIntegrity) *TitlesHandler {
	return &TitlesHandler{Catalog: catalogSvc, Integrity: integritySvc}
}

func (h *TitlesHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseTitleFilters(r)
	if err != nil {
		respondError(w, err)
		return
	}

	titles, err := h.Catalog.ListTitles(r.Context(), filters)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, titles)
}

func (h *TitlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	title, err := h.Catalog.GetTitle(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, title)
}

func (h *TitlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.TitleCreate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	title, err := h.Catalog.CreateTitle(payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, title)
}

func (h *TitlesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.TitleUpdate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	title, err := h.Catalog.UpdateTitle(mux.Vars(r)["id"], payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, title)
}

func (h *TitlesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Integrity.DeleteTitle(mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTitleFilters(r *http.Request) (models.TitleFilters, error) {
	q := r.URL.Query()
	filters := models.TitleFilters{
		Season:      strings.TrimSpace(q.Get("season")),
		Search:      strings.TrimSpace(q.Get("search")),
		Status:      models.TitleStatus(strings.TrimSpace(q.Get("status"))),
		ContentType: models.ContentType(strings.TrimSpace(q.Get("content_type"))),
	}

	if raw := strings.TrimSpace(q.Get("genres")); raw != "" {
		for _, genre := range strings.Split(raw, ",") {
			if genre = strings.TrimSpace(genre); genre != "" {
				filters.Genres = append(filters.Genres, genre)
			}
		}
	}

	var err error
	if filters.Year, err = parseIntParam(q.Get("year")); err != nil {
		return models.TitleFilters{}, err
	}
	if filters.Limit, err = parseIntParam(q.Get("limit")); err != nil {
		return models.TitleFilters{}, err
	}
	if filters.Offset, err = parseIntParam(q.Get("offset")); err != nil {
		return models.TitleFilters{}, err
	}

	return filters, nil
}

func parseIntParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter must be a number: %w", models.ErrValidation)
	}
	return n, nil
}
