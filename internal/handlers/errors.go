package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projectday/navigator-backend/internal/services"
	"github.com/projectday/navigator-backend/internal/storage"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// respondServiceError maps service-layer errors to HTTP responses. Every
// error here is user-correctable; the session is always left unchanged by
// the failed action.
func respondServiceError(c *gin.Context, err error) {
	var valErr *storage.ValidationError

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_credentials",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidOTP):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_otp",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Session is invalid or has expired. Please log in again.",
		})
	case errors.Is(err, services.ErrUnknownVenue), errors.Is(err, storage.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_venue",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrNoActiveNavigation):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_active_navigation",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotArrived):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_arrived",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrFeedbackAlreadyGiven):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "feedback_already_given",
			Message: err.Error(),
		})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: valErr.Message,
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong. Please try again.",
		})
	}
}
