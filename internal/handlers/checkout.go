package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agency-backend/internal/middleware"
	"agency-backend/internal/models"
	"agency-backend/internal/payments"
	"agency-backend/internal/services"
)

type CheckoutHandler struct {
	orderService *services.OrderService
	payments     payments.Provider
}

func NewCheckoutHandler(orderService *services.OrderService, provider payments.Provider) *CheckoutHandler {
	return &CheckoutHandler{orderService: orderService, payments: provider}
}

// CreateCheckoutSession godoc
// @Summary     Open the deposit checkout session
// @Description Re-validates the order data, verifies the amount equals the 50%
// @Description deposit for the budget band and opens a Stripe checkout session.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateCheckoutSessionRequest true "Checkout request"
// @Success     200 {object} models.CheckoutSessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /order/create-checkout-session [post]
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	sess, err := h.orderService.CreateInitialCheckout(c.Request.Context(), userID, req.OrderData, req.TempID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAmountMismatch):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "amount mismatch", Message: err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "staged files not found"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to create checkout session",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.CheckoutSessionResponse{SessionID: sess.ID, URL: sess.URL})
}

// FinalizeOrder godoc
// @Summary     Finalize a paid order
// @Description Verifies the checkout session is paid and turns the staged files
// @Description into a permanent order. Safe to call repeatedly: a session that was
// @Description already finalized returns the existing order.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.FinalizeOrderRequest true "Session id"
// @Success     200 {object} models.FinalizeOrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /order/finalize [post]
func (h *CheckoutHandler) FinalizeOrder(c *gin.Context) {
	var req models.FinalizeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orderService.FinalizeOrder(c.Request.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotPaid):
			c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Error: "session not paid"})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order prerequisites not found", Message: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to finalize order",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.FinalizeOrderResponse{
		Success:     true,
		OrderID:     result.Order.OrderID,
		Files:       fileNamesOf(result.Order.Files),
		FailedFiles: result.Failed,
		Warning:     services.PartialMoveWarning(result.Failed),
	})
}

// CheckSession godoc
// @Summary     Poll a checkout session
// @Description The success page polls this endpoint. For a paid remaining-payment
// @Description session it triggers order completion (idempotent against the
// @Description webhook); for an initial session it just reports paid status.
// @Tags        checkout
// @Produce     json
// @Security    Bearer
// @Param       sessionId path string true "Checkout session id"
// @Success     200 {object} models.CheckSessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /order/check-session/{sessionId} [get]
func (h *CheckoutHandler) CheckSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	sess, err := h.payments.GetCheckoutSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve session",
			Message: err.Error(),
		})
		return
	}
	if !sess.Paid {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "session not paid"})
		return
	}

	meta, err := payments.ParseSessionMetadata(sess.Metadata)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unrecognized session",
			Message: err.Error(),
		})
		return
	}

	if meta.Intent == payments.IntentRemainingPayment {
		orderOID, err := primitive.ObjectIDFromHex(meta.OrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id in session"})
			return
		}
		err = h.orderService.CompleteOrder(c.Request.Context(), orderOID, meta.FileMeta, meta.Message, meta.FolderPath)
		if err != nil && !errors.Is(err, services.ErrAlreadyCompleted) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to complete order",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, models.CheckSessionResponse{
			Success:            true,
			IsRemainingPayment: true,
			OrderID:            meta.OrderID,
		})
		return
	}

	c.JSON(http.StatusOK, models.CheckSessionResponse{Success: true, IsRemainingPayment: false})
}

func fileNamesOf(files []models.FileMeta) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}
