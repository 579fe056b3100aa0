package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InvocationStatusKey is the context key handlers set to the custom-resource status they returned
const InvocationStatusKey = "invocation_status"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewErrorResponse builds an error response stamped with the request id
func NewErrorResponse(c *gin.Context, err, message string) ErrorResponse {
	return ErrorResponse{
		Error:     err,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// ErrorHandler middleware for centralized error handling
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()

		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error("Request error")

		switch err.Type {
		case gin.ErrorTypeBind:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request format", err.Error()))
		case gin.ErrorTypePublic:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Bad request", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Internal server error", "the request could not be processed"))
		}
	}
}
