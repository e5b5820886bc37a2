package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "realtime-users/pkg/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// handleError maps application errors onto HTTP responses.
func handleError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validationErr *apperrors.ValidationError
		authErr       *apperrors.AuthError
		existsErr     *apperrors.AlreadyExistsError
		storeErr      *apperrors.StoreError
		syncErr       *apperrors.SyncError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: validationErr.Message})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: authErr.Message})
	case errors.As(err, &existsErr):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "already_exists", Message: existsErr.Error()})
	case errors.As(err, &storeErr):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store_unavailable", Message: storeErr.Error()})
	case errors.As(err, &syncErr):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "sync_failed", Message: syncErr.Error()})
	default:
		log.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
