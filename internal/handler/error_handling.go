package handler

import (
	"errors"
	"net/http"

	"event-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidCategory):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidCategory, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrEventNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeEventNotFound, Message: "Event not found"}
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeUserNotFound, Message: "User not found"}
	case errors.Is(err, models.ErrTicketNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeTicketNotFound, Message: "Delivery ticket not found"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, models.ErrEventFull):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeEventFull, Message: "Event is full"}
	case errors.Is(err, models.ErrAlreadyRegistered):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeAlreadyRegistered, Message: "User is already registered for this event"}
	case errors.Is(err, models.ErrEventPast):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeEventPast, Message: "Event date has already passed"}
	case errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeDuplicateEmail, Message: "Email already exists"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err), zap.String("path", c.FullPath()))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	responseErrorsTotal.WithLabelValues(http.StatusText(statusCode)).Inc()
	c.AbortWithStatusJSON(statusCode, errResp)
}

// abortBadRequest отвечает 400 на тело или параметр, которые не удалось разобрать.
func abortBadRequest(c *gin.Context, message string) {
	responseErrorsTotal.WithLabelValues(http.StatusText(http.StatusBadRequest)).Inc()
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: message})
}
