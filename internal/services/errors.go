package services

import "errors"

// Sentinel errors the HTTP layer maps onto status codes. Services wrap these
// with fmt.Errorf("%w: detail") so handlers can match with errors.Is while
// the response keeps the human-readable detail.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("invalid request")
	ErrConflict        = errors.New("already exists")
	ErrLastTenantAdmin = errors.New("cannot remove the last company admin of a tenant")
)
