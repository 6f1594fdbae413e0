package routes

import (
	handlers "razorpay-provider/internal/handlers/shared"
	"razorpay-provider/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupPaymentSessionRoutes sets up the host-facing provider lifecycle
func SetupPaymentSessionRoutes(r *gin.RouterGroup, sessionHandler *handlers.PaymentSessionHandler, auth gin.HandlerFunc) {
	sessions := r.Group("/payment-sessions")
	sessions.Use(auth)
	{
		sessions.POST("/initiate", sessionHandler.InitiatePayment)
		sessions.POST("/authorize", sessionHandler.AuthorizePayment)
		sessions.POST("/capture", sessionHandler.CapturePayment)
		sessions.POST("/cancel", sessionHandler.CancelPayment)
		sessions.POST("/delete", sessionHandler.DeletePayment)
		sessions.POST("/refund", sessionHandler.RefundPayment)
		sessions.POST("/retrieve", sessionHandler.RetrievePayment)
		sessions.POST("/update", sessionHandler.UpdatePayment)
		sessions.POST("/status", sessionHandler.GetPaymentStatus)
		sessions.POST("/verify-signature", sessionHandler.VerifyPaymentSignature)

		sessions.POST("/:session_id/data", sessionHandler.UpdatePaymentData)
	}
}

// SetupWebhookRoutes sets up public webhook routes (signature checked, no auth)
func SetupWebhookRoutes(r *gin.RouterGroup, webhookHandler *handlers.WebhookHandler) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/razorpay", webhookHandler.HandleRazorpayWebhook)
	}
}

func SetupLiveFeedRoutes(r *gin.RouterGroup, path string, wsHandler *websocket.Handler, auth gin.HandlerFunc) {
	r.GET(path, auth, wsHandler.HandleWebSocket)
}
