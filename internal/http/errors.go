package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/repository"
	"storefront/internal/service"
)

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStockExceeded),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides internal details behind a generic text for 5xx answers.
func errorMessage(status int, err error) string {
	if errors.Is(err, service.ErrPersistenceFailed) {
		return "could not register the order, please try again"
	}
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		slog.Error("Request failed", "path", c.Request.URL.Path, "err", err)
	}
	c.JSON(status, gin.H{"error": errorMessage(status, err)})
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}
