// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/Annany2002/nebula-forms/api/models"
	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/connections"
	"github.com/Annany2002/nebula-forms/internal/editor"
	"github.com/Annany2002/nebula-forms/internal/session"
	"github.com/Annany2002/nebula-forms/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Only the last error shapes the response.
		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		statusCode, body := mapError(err)

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, body)
		} else {
			customLog.Warnf("[ErrorHandler] Response already written before handling error.")
		}
	}
}

// mapError checks the most specific sentinels first: storage errors arrive
// wrapped in the editor's connection and execution errors.
func mapError(err error) (int, models.ErrorResponse) {
	var verr *editor.ValidationError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		status := http.StatusUnprocessableEntity
		if errors.Is(err, editor.ErrDuplicateKey) {
			status = http.StatusConflict
		}
		return status, models.ErrorResponse{Error: verr.Message, Field: verr.Field}

	case errors.Is(err, storage.ErrAmbiguousKey),
		errors.Is(err, storage.ErrConstraintViolation):
		return http.StatusConflict, models.ErrorResponse{Error: err.Error()}

	case errors.Is(err, storage.ErrRecordNotFound),
		errors.Is(err, storage.ErrTableNotFound),
		errors.Is(err, editor.ErrRowNotFound),
		errors.Is(err, config.ErrProfileNotFound),
		errors.Is(err, connections.ErrNoConnection):
		return http.StatusNotFound, models.ErrorResponse{Error: err.Error()}

	case errors.Is(err, session.ErrTokenExpired):
		return http.StatusUnauthorized, models.ErrorResponse{Error: "Session token has expired."}
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusUnauthorized, models.ErrorResponse{Error: "Session expired or not found. Start a new session."}
	case errors.Is(err, ErrAuthorizationRequired),
		errors.Is(err, session.ErrTokenMalformed),
		errors.Is(err, session.ErrTokenInvalid),
		errors.Is(err, session.ErrTokenClaimsInvalid),
		errors.Is(err, session.ErrUnexpectedSigningMethod):
		return http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid or malformed session token."}

	case errors.Is(err, editor.ErrReadOnly):
		return http.StatusForbidden, models.ErrorResponse{Error: err.Error()}

	case errors.Is(err, editor.ErrNotConnected):
		return http.StatusConflict, models.ErrorResponse{Error: err.Error()}

	case errors.Is(err, editor.ErrConnection),
		errors.Is(err, connections.ErrUpstream),
		errors.Is(err, connections.ErrHandshake):
		return http.StatusBadGateway, models.ErrorResponse{Error: err.Error()}

	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
		}
		return http.StatusBadRequest, models.ErrorResponse{Error: "Validation failed. Please check your input."}

	case errors.Is(err, editor.ErrExecution),
		errors.Is(err, editor.ErrInvalidMode),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, connections.ErrInvalidRequest):
		return http.StatusBadRequest, models.ErrorResponse{Error: err.Error()}
	}

	customLog.Warnf("Unhandled error type: %T, Error: %v", err, err)
	return http.StatusInternalServerError, models.ErrorResponse{Error: "An unexpected internal server error occurred."}
}
