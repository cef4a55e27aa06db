package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"anivault/models"
	"anivault/services/integrity"
	"anivault/services/reviews"
)

type reviewsService interface {
	GetByID(id string) (models.Review, error)
	GetUserReview(userID, titleID string) (models.Review, error)
	ListByTitle(titleID string) ([]models.Review, error)
}

type reviewsIntegrity interface {
	CreateReview(userID string, payload models.ReviewCreate) (models.Review, error)
	UpdateReview(id string, payload models.ReviewUpdate) (models.Review, error)
	DeleteReview(id string) error
}

var (
	_ reviewsService   = (*reviews.Service)(nil)
	_ reviewsIntegrity = (*integrity.Service)(nil)
)

// ReviewsHandler serves title reviews. Creates go through the integrity
// service so the title's rating stays in sync.
type ReviewsHandler struct {
	Service   reviewsService
	Integrity reviewsIntegrity
}

func NewReviewsHandler(service reviewsService, integritySvc reviewsIntegrity) *ReviewsHandler {
	return &ReviewsHandler{Service: service, Integrity: integritySvc}
}

func (h *ReviewsHandler) ListByTitle(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListByTitle(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Create posts a review for the title in the path as the calling user.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity.UserID == "" {
		respondError(w, models.ErrForbidden)
		return
	}

	var payload models.ReviewCreate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}
	payload.TitleID = mux.Vars(r)["id"]

	review, err := h.Integrity.CreateReview(identity.UserID, payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, review)
}

func (h *ReviewsHandler) GetUserReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	review, err := h.Service.GetUserReview(vars["userID"], vars["titleID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// Update edits a review. Only its author may change it.
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := h.Service.GetByID(id)
	if err != nil {
		respondError(w, err)
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.UserID != existing.UserID {
		respondError(w, models.ErrForbidden)
		return
	}

	var payload models.ReviewUpdate
	if err := decodeBody(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	review, err := h.Integrity.UpdateReview(id, payload)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, review)
}

// Delete removes a review. The author or an admin may delete it.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := h.Service.GetByID(id)
	if err != nil {
		respondError(w, err)
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.UserID != existing.UserID && !identity.IsAdmin() {
		respondError(w, models.ErrForbidden)
		return
	}

	if err := h.Integrity.DeleteReview(id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
