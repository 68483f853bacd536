// Package outcome defines the authorization outcome taxonomy shared by the
// policy layer, the session layer, and the HTTP handlers.
//
// Every mutating capability check resolves to exactly one of these outcomes
// so the API layer can map them to stable status codes. They are deliberate
// sentinels: callers and tests depend on telling Forbidden apart from
// NotFound apart from MaintenanceBlocked, so they must never be collapsed
// into a generic error.
package outcome

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated means no valid identity was established.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity is valid but the capability or
	// delegation check denied the action.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the target entity is absent or already removed.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the mutation collides with existing state, such as
	// a duplicate membership or a duplicate name.
	ErrConflict = errors.New("conflict")

	// ErrMaintenance means a non-root actor was turned away while
	// maintenance mode is on. Distinct from ErrForbidden: the UI shows a
	// different message, and the denial is not a failed authorization.
	ErrMaintenance = errors.New("maintenance mode")
)

// HTTPStatus maps an outcome to its HTTP status code. Unknown errors map to
// 500 so handlers can pass any error straight through.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrMaintenance):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code for an outcome.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrMaintenance):
		return "MAINTENANCE"
	default:
		return "INTERNAL"
	}
}
