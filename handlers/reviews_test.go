package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"anivault/handlers"
	"anivault/models"
)

func withIdentity(req *http.Request, userID string, role models.Role) *http.Request {
	ctx := handlers.ContextWithIdentity(req.Context(), models.Identity{UserID: userID, Role: role})
	return req.WithContext(ctx)
}

func TestReviewsCreateRequiresIdentity(t *testing.T) {
	s := newStores(t)
	h := handlers.NewReviewsHandler(s.reviews, s.integrity)

	title, err := s.catalog.CreateTitle(models.TitleCreate{Title: "X", SeriesName: "X"})
	if err != nil {
		t.Fatalf("seed title: %v", err)
	}

	payload, _ := json.Marshal(models.ReviewCreate{Rating: 8})
	req := httptest.NewRequest(http.MethodPost, "/api/titles/"+title.ID+"/reviews", bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"id": title.ID})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 without identity, got %d", rec.Code)
	}
}

func TestReviewsCreateAndListByTitle(t *testing.T) {
	s := newStores(t)
	h := handlers.NewReviewsHandler(s.reviews, s.integrity)

	user, err := s.profiles.Create(models.ProfileCreate{Username: "kaz"})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	title, err := s.catalog.CreateTitle(models.TitleCreate{Title: "X", SeriesName: "X"})
	if err != nil {
		t.Fatalf("seed title: %v", err)
	}

	payload, _ := json.Marshal(models.ReviewCreate{Rating: 8, Comment: "great"})
	req := httptest.NewRequest(http.MethodPost, "/api/titles/"+title.ID+"/reviews", bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"id": title.ID})
	req = withIdentity(req, user.ID, models.RoleUser)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode review: %v", err)
	}
	if created.UserID != user.ID || created.TitleID != title.ID {
		t.Fatalf("unexpected review: %+v", created)
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/titles/"+title.ID+"/reviews", nil)
	reqList = mux.SetURLVars(reqList, map[string]string{"id": title.ID})
	recList := httptest.NewRecorder()
	h.ListByTitle(recList, reqList)

	var list []models.Review
	if err := json.Unmarshal(recList.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 review, got %d", len(list))
	}

	// The derived rating landed on the title.
	got, err := s.catalog.GetTitle(title.ID)
	if err != nil {
		t.Fatalf("get title: %v", err)
	}
	if got.Rating != 8 {
		t.Fatalf("expected derived rating 8, got %v", got.Rating)
	}
}

func TestReviewsUpdateOwnerOnly(t *testing.T) {
	s := newStores(t)
	h := handlers.NewReviewsHandler(s.reviews, s.integrity)

	owner, err := s.profiles.Create(models.ProfileCreate{Username: "owner"})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	title, err := s.catalog.CreateTitle(models.TitleCreate{Title: "X", SeriesName: "X"})
	if err != nil {
		t.Fatalf("seed title: %v", err)
	}
	review, err := s.integrity.CreateReview(owner.ID, models.ReviewCreate{TitleID: title.ID, Rating: 5})
	if err != nil {
		t.Fatalf("seed review: %v", err)
	}

	payload := []byte(`{"rating": 9}`)
	req := httptest.NewRequest(http.MethodPut, "/api/reviews/"+review.ID, bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"id": review.ID})
	req = withIdentity(req, "someone-else", models.RoleUser)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-owner, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/reviews/"+review.ID, bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"id": review.ID})
	req = withIdentity(req, owner.ID, models.RoleUser)
	rec = httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for owner, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReviewsDeleteOwnerOrAdmin(t *testing.T) {
	s := newStores(t)
	h := handlers.NewReviewsHandler(s.reviews, s.integrity)

	owner, err := s.profiles.Create(models.ProfileCreate{Username: "owner"})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	title, err := s.catalog.CreateTitle(models.TitleCreate{Title: "X", SeriesName: "X"})
	if err != nil {
		t.Fatalf("seed title: %v", err)
	}
	review, err := s.integrity.CreateReview(owner.ID, models.ReviewCreate{TitleID: title.ID, Rating: 5})
	if err != nil {
		t.Fatalf("seed review: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/"+review.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": review.ID})
	req = withIdentity(req, "someone-else", models.RoleUser)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-owner, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/reviews/"+review.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": review.ID})
	req = withIdentity(req, "someone-else", models.RoleAdmin)
	rec = httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for admin, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := s.reviews.GetByID(review.ID); err == nil {
		t.Fatal("expected review to be gone")
	}
}
