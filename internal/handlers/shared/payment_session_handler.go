package handlers

import (
	"context"

	"razorpay-provider/internal/models"
	"razorpay-provider/internal/services"
	"razorpay-provider/internal/utils"
	"razorpay-provider/internal/validators"
	"razorpay-provider/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentSessionHandler exposes the provider lifecycle to the commerce host.
// Each endpoint takes and returns the session blob the host persists.
type PaymentSessionHandler struct {
	provider services.PaymentSessionProvider
}

func NewPaymentSessionHandler(provider services.PaymentSessionProvider) *PaymentSessionHandler {
	return &PaymentSessionHandler{
		provider: provider,
	}
}

// InitiatePayment creates the gateway order for a new session
func (h *PaymentSessionHandler) InitiatePayment(c *gin.Context) {
	var request validators.InitiatePaymentRequest
	if !bindAndValidate(c, &request) {
		return
	}

	ctx := withSession(c.Request.Context(), request.Context.SessionID)
	data, err := h.provider.InitiatePayment(ctx, request.Input())
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment session initiated", data)
}

func (h *PaymentSessionHandler) AuthorizePayment(c *gin.Context) {
	var request validators.AuthorizePaymentRequest
	if !bindAndValidate(c, &request) {
		return
	}

	result, err := h.provider.AuthorizePayment(c.Request.Context(), request.Data, request.Context)
	if err != nil {
		if result == nil {
			utils.ProviderErrorResponse(c, err, nil)
			return
		}
		utils.ProviderErrorResponse(c, err, result)
		return
	}

	utils.SuccessResponse(c, "Payment session authorized", result)
}

// CapturePayment captures every authorized payment on the order. Partial
// failures come back as an error alongside the updated session.
func (h *PaymentSessionHandler) CapturePayment(c *gin.Context) {
	var request validators.SessionRequest
	if !bindAndValidate(c, &request) {
		return
	}

	data, err := h.provider.CapturePayment(c.Request.Context(), request.Data)
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment captured", data)
}

func (h *PaymentSessionHandler) CancelPayment(c *gin.Context) {
	var request validators.SessionRequest
	if !bindAndValidate(c, &request) {
		return
	}

	data, err := h.provider.CancelPayment(c.Request.Context(), request.Data)
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment canceled", data)
}

func (h *PaymentSessionHandler) DeletePayment(c *gin.Context) {
	var request validators.SessionRequest
	if !bindAndValidate(c, &request) {
		return
	}

	data, err := h.provider.DeletePayment(c.Request.Context(), request.Data)
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment deleted", data)
}

func (h *PaymentSessionHandler) RefundPayment(c *gin.Context) {
	var request validators.RefundPaymentRequest
	if !bindAndValidate(c, &request) {
		return
	}

	data, err := h.provider.RefundPayment(c.Request.Context(), request.Data, request.Amount)
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Refund created", data)
}

func (h *PaymentSessionHandler) RetrievePayment(c *gin.Context) {
	var request validators.SessionRequest
	if !bindAndValidate(c, &request) {
		return
	}

	data, err := h.provider.RetrievePayment(c.Request.Context(), request.Data)
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment session retrieved", data)
}

func (h *PaymentSessionHandler) UpdatePayment(c *gin.Context) {
	var request validators.UpdatePaymentRequest
	if !bindAndValidate(c, &request) {
		return
	}

	ctx := withSession(c.Request.Context(), request.Context.SessionID)
	data, err := h.provider.UpdatePayment(ctx, request.Input())
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment session updated", data)
}

// UpdatePaymentData merges notes onto the session's order. Amount and
// currency are rejected by the provider, not here.
func (h *PaymentSessionHandler) UpdatePaymentData(c *gin.Context) {
	sessionID := c.Param("session_id")

	var request models.UpdateDataInput
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ctx := withSession(c.Request.Context(), sessionID)
	data, err := h.provider.UpdatePaymentData(ctx, sessionID, &request)
	if err != nil {
		respondSessionError(c, err, data)
		return
	}

	utils.SuccessResponse(c, "Payment session data updated", data)
}

func (h *PaymentSessionHandler) GetPaymentStatus(c *gin.Context) {
	var request validators.SessionRequest
	if !bindAndValidate(c, &request) {
		return
	}

	status, err := h.provider.GetPaymentStatus(c.Request.Context(), request.Data)
	if err != nil {
		utils.ProviderErrorResponse(c, err, gin.H{"status": status})
		return
	}

	utils.SuccessResponse(c, "Payment status retrieved", gin.H{"status": status})
}

// VerifyPaymentSignature checks the signature checkout hands back after a
// successful payment.
func (h *PaymentSessionHandler) VerifyPaymentSignature(c *gin.Context) {
	var request validators.VerifySignatureRequest
	if !bindAndValidate(c, &request) {
		return
	}

	valid, err := h.provider.VerifyPaymentSignature(request.PaymentID, request.OrderID, request.Signature)
	if err != nil {
		utils.ProviderErrorResponse(c, err, nil)
		return
	}

	utils.SuccessResponse(c, "Signature checked", gin.H{"valid": valid})
}

func bindAndValidate(c *gin.Context, request interface{}) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}

	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Map())
		return false
	}
	return true
}

func respondSessionError(c *gin.Context, err error, data *models.SessionData) {
	if data == nil {
		utils.ProviderErrorResponse(c, err, nil)
		return
	}
	utils.ProviderErrorResponse(c, err, data)
}

func withSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, logger.SessionIDKey, sessionID)
}
