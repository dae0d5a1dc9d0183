package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges actions that return no record
type MessageResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// RespondError writes err with its mapped status and aborts the chain.
// Causes of 5xx responses are logged and never returned to the client.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	status := appErr.StatusCode()
	message := appErr.Message
	if !appErr.Public() {
		log.Error().
			Err(err).
			Str("kind", appErr.Kind.String()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("Request failed")
		message = "Internal server error"
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}

// NotFound is the fallback for unregistered routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, NewErrorResponse("Not found"))
}
