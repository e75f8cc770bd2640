package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/models"
	"agency-backend/internal/payments"
	"agency-backend/internal/services"
)

type WebhookHandler struct {
	payments     *payments.Client
	orderService *services.OrderService
	logger       *zap.Logger
}

func NewWebhookHandler(paymentsClient *payments.Client, orderService *services.OrderService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments:     paymentsClient,
		orderService: orderService,
		logger:       logger,
	}
}

// HandleWebhook godoc
// @Summary     Stripe webhook endpoint
// @Description Receives checkout lifecycle events. Signature-verified; after
// @Description receipt the endpoint always answers 200 and logs processing
// @Description failures so Stripe does not retry forever. Completed sessions
// @Description finalize or complete orders, expired and failed sessions reclaim
// @Description staged files.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature"
// @Success     200 {object} map[string]string "status"
// @Failure     400 {object} models.ErrorResponse
// @Router      /stripe/webhook [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	event, err := h.payments.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid signature",
			Message: err.Error(),
		})
		return
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		h.onSessionCompleted(c, event)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		h.onSessionDead(c, event)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) onSessionCompleted(c *gin.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("failed to decode checkout session", zap.Error(err))
		return
	}

	meta, err := payments.ParseSessionMetadata(sess.Metadata)
	if err != nil {
		h.logger.Warn("completed session without usable metadata",
			zap.String("sessionId", sess.ID), zap.Error(err))
		return
	}

	ctx := c.Request.Context()
	switch meta.Intent {
	case payments.IntentInitialPayment:
		result, err := h.orderService.FinalizeOrder(ctx, sess.ID)
		if err != nil {
			h.logger.Error("webhook finalization failed",
				zap.String("sessionId", sess.ID), zap.Error(err))
			return
		}
		if result.AlreadyProcessed {
			h.logger.Info("session already finalized", zap.String("sessionId", sess.ID))
		}

	case payments.IntentRemainingPayment:
		orderOID, err := primitive.ObjectIDFromHex(meta.OrderID)
		if err != nil {
			h.logger.Error("invalid order id in session metadata",
				zap.String("sessionId", sess.ID), zap.Error(err))
			return
		}
		err = h.orderService.CompleteOrder(ctx, orderOID, meta.FileMeta, meta.Message, meta.FolderPath)
		if errors.Is(err, services.ErrAlreadyCompleted) {
			h.logger.Info("order already completed", zap.String("orderId", meta.OrderID))
			return
		}
		if err != nil {
			h.logger.Error("webhook completion failed",
				zap.String("orderId", meta.OrderID), zap.Error(err))
		}
	}
}

func (h *WebhookHandler) onSessionDead(c *gin.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("failed to decode checkout session", zap.Error(err))
		return
	}

	tempID := sess.Metadata["tempId"]
	if tempID == "" {
		return
	}
	if err := h.orderService.CleanupTempFileByID(c.Request.Context(), tempID); err != nil {
		h.logger.Error("failed to reclaim staged files",
			zap.String("tempId", tempID), zap.Error(err))
	}
}
