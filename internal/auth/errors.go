package auth

import (
	"errors"
	"net/http"
)

// Error is a typed authorization failure carrying the HTTP status the route
// boundary should answer with. The message is safe to echo to clients.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrUnauthenticated: no identity on the request.
	ErrUnauthenticated = &Error{Status: http.StatusUnauthorized, Message: "authentication required"}
	// ErrForbidden: identity present, resolved role below the required tier.
	ErrForbidden = &Error{Status: http.StatusForbidden, Message: "insufficient admin privileges"}
	// ErrSelfDemotion: an ultra_admin attempted to drop their own top tier.
	ErrSelfDemotion = &Error{Status: http.StatusBadRequest, Message: "cannot remove own top-level role"}
	// ErrRoleResolution: the profile lookup itself failed.
	ErrRoleResolution = &Error{Status: http.StatusInternalServerError, Message: "role resolution failed"}

	ErrInvalidInput = errors.New("auth: invalid input")
	ErrInvalidToken = errors.New("invalid token")
)

// StatusFor maps an error to the response status the route layer should use.
func StatusFor(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
