package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agency-backend/internal/database"
	"agency-backend/internal/middleware"
	"agency-backend/internal/models"
	"agency-backend/internal/services"
)

type CancelHandler struct {
	orderService *services.OrderService
	db           *database.Database
}

func NewCancelHandler(orderService *services.OrderService, db *database.Database) *CancelHandler {
	return &CancelHandler{orderService: orderService, db: db}
}

// CreateCancelRequest godoc
// @Summary     Request order cancellation
// @Description Files a cancellation request for one of the caller's orders.
// @Description Ownership is checked by email match; one request per order.
// @Tags        cancel-requests
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CancelRequestCreate true "Order and reason"
// @Success     200 {object} models.CancelRequest
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /cancel-requests [post]
func (h *CancelHandler) CreateCancelRequest(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	var req models.CancelRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	orderOID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	cr, err := h.orderService.RequestCancel(c.Request.Context(), userID, orderOID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "order does not belong to you"})
		case errors.Is(err, services.ErrConflict):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "cancel request already exists for this order"})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to create cancel request",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, cr)
}

// ListCancelRequests godoc
// @Summary     List cancellation requests
// @Description Paginated requests with the order and requester joined in.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page (default 1)"
// @Param       limit query int false "Page size (default 10)"
// @Success     200 {object} models.CancelRequestListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/cancel-requests [get]
func (h *CancelHandler) ListCancelRequests(c *gin.Context) {
	page, limit := pageParams(c)

	requests, total, err := h.db.ListCancelRequests(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list cancel requests",
			Message: err.Error(),
		})
		return
	}
	if requests == nil {
		requests = []models.CancelRequestView{}
	}

	c.JSON(http.StatusOK, models.CancelRequestListResponse{
		Requests:   requests,
		Total:      total,
		TotalPages: totalPages(total, limit),
	})
}

// AcceptCancelRequest godoc
// @Summary     Accept a cancellation request
// @Description Deletes the order with its stored files and notifies the
// @Description customer.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Request id"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/cancel-requests/{id}/accept [post]
func (h *CancelHandler) AcceptCancelRequest(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request id"})
		return
	}

	if err := h.orderService.AcceptCancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "cancel request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to accept cancel request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "order cancelled"})
}

// DeclineCancelRequest godoc
// @Summary     Decline a cancellation request
// @Description Removes the request and notifies the customer; the order is
// @Description untouched.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Request id"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/cancel-requests/{id}/decline [post]
func (h *CancelHandler) DeclineCancelRequest(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request id"})
		return
	}

	if err := h.orderService.DeclineCancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "cancel request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to decline cancel request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "cancel request declined"})
}
