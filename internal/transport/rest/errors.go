package rest

import (
	"errors"
	"net/http"

	perrors "github.com/abgdnv/productapi/internal/errors"
)

// MapError maps a service error to the HTTP status and client-facing message of the error body.
func MapError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, perrors.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
