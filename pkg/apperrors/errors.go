package apperrors

import "errors"

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrParse               = errors.New("response parse failed")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrInternal            = errors.New("internal error")

	ErrConflict    = errors.New("conflict")
	ErrInvalidRole = errors.New("invalid role")
)
