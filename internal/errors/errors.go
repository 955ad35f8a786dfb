package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorTemplate is the template rendered for every error page.
const ErrorTemplate = "error.html"

// PageError is the data handed to the error page template
type PageError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface
func (e *PageError) Error() string {
	return e.Message
}

// NewPageError creates a new PageError
func NewPageError(status int, code, message string) *PageError {
	return &PageError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// RenderError renders the error page and aborts the handler chain
func RenderError(c *gin.Context, err *PageError) {
	c.HTML(err.Status, ErrorTemplate, gin.H{
		"Title": http.StatusText(err.Status),
		"Error": err,
	})
	c.Abort()
}

// Helper functions for common error pages

// NotFound renders a 404 page
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Page not found"
	}
	RenderError(c, NewPageError(http.StatusNotFound, ErrCodeNotFound, message))
}

// InternalError renders a 500 page. The message is shown to the user, so it
// must not carry backend details.
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again later."
	}
	RenderError(c, NewPageError(http.StatusInternalServerError, ErrCodeInternalError, message))
}

// ServiceUnavailable renders a 503 page
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RenderError(c, NewPageError(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message))
}
