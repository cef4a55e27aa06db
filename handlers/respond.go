package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"anivault/models"
)

// errorBody is the wire shape for every failure response.
type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps the shared failure kinds onto HTTP statuses. Callers never
// see storage detail. Errors outside the taxonomy get a generic reason on the
// wire and the full chain in the log.
func respondError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, models.ErrIntegrity):
		logrus.WithError(err).Error("integrity failure")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "integrity violation"})
		return
	default:
		logrus.WithError(err).Error("unhandled request error")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %v: %w", err, models.ErrValidation)
	}
	return nil
}
