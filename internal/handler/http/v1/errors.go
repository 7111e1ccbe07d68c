package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/pkg/e"
	"github.com/sirupsen/logrus"
)

// ErrorResponse DTO для ответа с ошибкой
// @Description DTO для ответа с ошибкой; login указывает нужную форму входа
type ErrorResponse struct {
	Error string `json:"error"`
	Login string `json:"login,omitempty"`
}

// respondError сопоставляет категорию ошибки со статусом HTTP.
// Детали внутренних ошибок не покидают сервер.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		reason := e.Reason(err)
		if reason == "" {
			reason = "invalid request"
		}
		log.WithError(err).Warn("Request rejected")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: reason})
	case errors.Is(err, e.ErrUnauthenticated):
		log.WithError(err).Warn("Authentication failed")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid username or password"})
	case errors.Is(err, e.ErrForbidden):
		log.WithError(err).Warn("Access denied")
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, e.ErrNotFound):
		log.WithError(err).Warn("Incident not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "incident not found"})
	case errors.Is(err, e.ErrConflict):
		log.WithError(err).Warn("Conflict")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "request conflicts with current state, please retry"})
	case errors.Is(err, e.ErrRateLimited):
		log.WithError(err).Warn("Rate limited")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests. Please try again later."})
	default:
		log.WithError(err).Error("Internal error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
