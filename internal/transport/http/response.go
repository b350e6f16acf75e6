package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
)

// ErrorResponse is the uniform error body. Messages stay generic; internal
// details never leave the process.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// RespondError writes the error body and aborts the request.
func RespondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		StatusCode: status,
		Message:    message,
	})
}

// StatusFromError maps a kind-typed error to an HTTP status code.
func StatusFromError(err error) int {
	switch {
	case perrors.IsKind(err, perrors.KindAuth):
		return http.StatusUnauthorized
	case perrors.IsKind(err, perrors.KindConflict):
		return http.StatusConflict
	case perrors.IsKind(err, perrors.KindDomain):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// MessageFromError picks a client-safe message for the error. Server-side
// failures collapse to a generic message.
func MessageFromError(err error) string {
	if StatusFromError(err) >= http.StatusInternalServerError {
		return "internal server error"
	}
	var typed *perrors.Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return "request failed"
}
