package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error answered by the service
type ErrorResponse struct {
	Detail     string `json:"detail"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after_ms,omitempty"`
}

// Common error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNetworkError    = "NETWORK_ERROR"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeCircuitOpen     = "CIRCUIT_OPEN"
	ErrCodeServiceDegraded = "SERVICE_DEGRADED"
)

// RespondError sends a structured error response
func RespondError(c *gin.Context, status int, code string, detail string) {
	c.JSON(status, ErrorResponse{Detail: detail, Code: code})
}

// RespondErrorWithRetry sends a structured error response with retry hint
func RespondErrorWithRetry(c *gin.Context, status int, code string, detail string, retryAfterMs int) {
	c.JSON(status, ErrorResponse{Detail: detail, Code: code, RetryAfter: retryAfterMs})
}

// ValidationFailed sends a 422 error for requests that do not match the schema
func ValidationFailed(c *gin.Context, detail string) {
	RespondError(c, http.StatusUnprocessableEntity, ErrCodeValidation, detail)
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, detail string) {
	RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, detail)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, detail string) {
	RespondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, detail)
}

// NetworkError sends a 503 error for completion service failures
func NetworkError(c *gin.Context, err error) {
	RespondError(c, http.StatusServiceUnavailable, ErrCodeNetworkError, "network error: "+err.Error())
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, err error) {
	RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal error: "+err.Error())
}
