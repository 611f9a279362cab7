package errors

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the JSON error envelope returned by every endpoint.
type APIError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(message string) *APIError {
	return &APIError{
		Success: false,
		Message: message,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Not authorized to access this route"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Not authorized to access this resource"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(message))
}

// InternalError sends a 500 response with a generic message. The underlying
// detail is logged server-side only.
func InternalError(c *gin.Context, err error) {
	if err != nil {
		log.Printf("internal error: %v", err)
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError("Server Error"))
}
