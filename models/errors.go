package models

import "errors"

// Shared failure kinds. Services wrap these with context so handlers can map
// any error to a response class with errors.Is without knowing which service
// produced it.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("invalid payload")
	ErrForbidden  = errors.New("forbidden")
	ErrIntegrity  = errors.New("integrity violation")
	ErrTimeout    = errors.New("operation timed out")
)
