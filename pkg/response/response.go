package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/types"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeDuplicateResource = "DUPLICATE_RESOURCE"
	ErrCodeAlreadyDecided    = "ALREADY_DECIDED"
	ErrCodeSelfDealing       = "SELF_DEALING"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// Handle processes the error and returns the appropriate response. Business
// rejections surface their kind verbatim; only a missing balance account is
// treated as an internal fault, because it means referential integrity broke.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, types.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, types.ErrAlreadyDecided):
		respondError(c, http.StatusConflict, ErrCodeAlreadyDecided, err.Error())
	case errors.Is(err, types.ErrSelfDealing):
		respondError(c, http.StatusForbidden, ErrCodeSelfDealing, err.Error())
	case errors.Is(err, types.ErrInsufficientFunds):
		respondError(c, http.StatusBadRequest, ErrCodeInsufficientFunds, err.Error())
	case errors.Is(err, types.ErrUnknownAccount):
		// Data-integrity bug, not a business rejection
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unknown balance account")
		InternalError(c, "An unexpected error occurred")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, "Resource already exists")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		InternalError(c, "An unexpected error occurred")
	}
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	respondError(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	respondError(c, http.StatusConflict, ErrCodeDuplicateResource, message)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}
