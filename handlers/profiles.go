package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/integrity"
	"anivault/services/profiles"
)

type profilesService interface {
	List() []models.Profile
	Get(id string) (models.Profile, error)
	Create(payload models.ProfileCreate) (models.Profile, error)
	Update(id string, payload models.ProfileUpdate) (models.Profile, error)
	UpdateRole(id string, role models.Role) (models.Profile, error)
}

type profilesIntegrity interface {
	DeleteProfile(id string) error
}

var (
	_ profilesService   = (*profiles.Service)(nil)
	_ profilesIntegrity = (*integrity.Service)(nil)
)

// ProfilesHandler serves the profile surface. Role gating happens in the
// router middleware; the handler trusts the resolved identity.
type ProfilesHandler struct {
	Service   profilesService
	Integrity profilesIntegrity
}

func NewProfilesHandler(service profilesService, integritySvc profilesIntegrity) *ProfilesHandler {
	return &ProfilesHandler{Service: service, Integrity: integritySvc}
}

func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Service.List())
}

func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.ProfileCreate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	profile, err := h.Service.Create(payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

func (h *ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.ProfileUpdate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	profile, err := h.Service.Update(mux.Vars(r)["id"], payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role models.Role `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	profile, err := h.Service.UpdateRole(mux.Vars(r)["id"], body.Role)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Integrity.DeleteProfile(mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
