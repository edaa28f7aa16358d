package handlers

import (
	"errors"
	"net/http"

	"github.com/matrixnet/social-service/internal/domain"
)

// statusFor maps domain errors onto HTTP statuses. Anything unknown is a
// server error; the bus caller never sees event-handler failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
