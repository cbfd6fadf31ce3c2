package dto

import (
	"errors"
	"net/http"

	"assessment-service/internal/models"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the stable failure envelope for every endpoint.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func JsonError(c *gin.Context, status int, message ...string) {
	msg := http.StatusText(status)
	if len(message) > 0 {
		msg = message[0]
	}

	c.JSON(status, ErrorResponse{
		Success:    false,
		StatusCode: status,
		Message:    msg,
	})
}

// FromError maps the error taxonomy onto HTTP status codes. Anything
// outside the taxonomy is a 500 with a generic message.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		JsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrForbidden):
		JsonError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidState):
		JsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrValidation):
		JsonError(c, http.StatusBadRequest, err.Error())
	default:
		JsonError(c, http.StatusInternalServerError)
	}
}
