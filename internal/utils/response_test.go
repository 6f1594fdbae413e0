package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"razorpay-provider/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestProviderErrorStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrorCodeInvalidData, http.StatusUnprocessableEntity},
		{models.ErrorCodeRefundPaymentNotFound, http.StatusUnprocessableEntity},
		{models.ErrorCodeCaptureFailed, http.StatusUnprocessableEntity},
		{models.ErrorCodeUnsupportedOperation, http.StatusNotImplemented},
		{models.ErrorCodeSessionLocked, http.StatusConflict},
		{models.ErrorCodeNotConfigured, http.StatusServiceUnavailable},
		{models.ErrorCodeUpstream, http.StatusBadGateway},
		{"", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderErrorStatus(tt.code))
		})
	}
}

func TestProviderErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ProviderErrorResponse(c, models.NewValidationError("amount must be positive"), gin.H{"id": "order_1"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusError, body.Status)
	require.NotNil(t, body.Error)
	assert.Equal(t, models.ErrorCodeInvalidData, body.Error.Code)
	assert.Equal(t, "amount must be positive", body.Error.Message)
	assert.NotNil(t, body.Data)
}

func TestProviderErrorResponse_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ProviderErrorResponse(c, errors.New("boom"), nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "boom")
}

func TestHostToken(t *testing.T) {
	token, err := GenerateHostToken("host_1", HostRole, "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "host_1", claims.Subject)
	assert.Equal(t, HostRole, claims.Role)

	_, err = ValidateToken(token, "other")
	assert.Error(t, err)

	expired, err := GenerateHostToken("host_1", HostRole, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, "secret")
	assert.EqualError(t, err, ErrTokenExpired)
}

func TestPhoneHelpers(t *testing.T) {
	assert.True(t, IsValidPhone("+91 90000-00001"))
	assert.False(t, IsValidPhone("abc"))
	assert.Equal(t, "+919000000001", NormalizePhone("91 9000 000 001"))
	assert.Equal(t, "", NormalizePhone(""))
}
