package utils

import (
	"errors"
	"net/http"
	"time"

	"razorpay-provider/internal/models"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Detail  string            `json:"detail,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

func ErrorResponseWithDetails(c *gin.Context, statusCode int, code, message string, details map[string]string) {
	c.JSON(statusCode, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	})
}

// ProviderErrorResponse renders a provider operation failure. The optional
// data is the session blob the operation handed back alongside the error,
// so the host can persist it even on failure.
func ProviderErrorResponse(c *gin.Context, err error, data interface{}) {
	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		pe = models.BuildError(ErrInternalServer, err)
	}

	code := pe.Code
	if code == "" {
		code = models.ErrorCodeUpstream
	}

	c.JSON(ProviderErrorStatus(pe.Code), APIResponse{
		Status: StatusError,
		Data:   data,
		Error: &APIError{
			Code:    code,
			Message: pe.Message,
			Detail:  pe.Detail,
		},
		Timestamp: time.Now(),
	})
}

// ProviderErrorStatus maps a provider error code to its HTTP status. Errors
// without a code came from the gateway.
func ProviderErrorStatus(code string) int {
	switch code {
	case models.ErrorCodeInvalidData,
		models.ErrorCodeRefundPaymentNotFound,
		models.ErrorCodeCaptureFailed:
		return http.StatusUnprocessableEntity
	case models.ErrorCodeUnsupportedOperation:
		return http.StatusNotImplemented
	case models.ErrorCodeSessionLocked:
		return http.StatusConflict
	case models.ErrorCodeNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func ValidationErrorResponse(c *gin.Context, errors map[string]string) {
	ErrorResponseWithDetails(c, http.StatusUnprocessableEntity, models.ErrorCodeInvalidData, ErrValidationFailed, errors)
}

func ForbiddenResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", ErrForbidden)
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}
