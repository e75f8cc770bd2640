package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agency-backend/internal/database"
	"agency-backend/internal/models"
	"agency-backend/internal/services"
)

type AdminHandler struct {
	orderService *services.OrderService
	db           *database.Database
}

func NewAdminHandler(orderService *services.OrderService, db *database.Database) *AdminHandler {
	return &AdminHandler{orderService: orderService, db: db}
}

func pageParams(c *gin.Context) (int64, int64) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func totalPages(total, limit int64) int64 {
	return (total + limit - 1) / limit
}

// ListOrders godoc
// @Summary     List all orders
// @Description Paginated order list for the admin dashboard, newest first.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page (default 1)"
// @Param       limit query int false "Page size (default 10)"
// @Success     200 {object} models.OrderListResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders [get]
func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, limit := pageParams(c)

	orders, total, err := h.db.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list orders",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Orders:     orderSummaries(orders),
		Total:      total,
		TotalPages: totalPages(total, limit),
	})
}

// CompleteOrder godoc
// @Summary     Upload deliverables and request the remaining payment
// @Description Uploads the finished files to the completed-orders area, opens the
// @Description remaining-payment checkout session and emails the customer the
// @Description payment link. The order completes when that session is paid.
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order id"
// @Param       files formData file true "Deliverable files"
// @Param       message formData string false "Note included in the completion email"
// @Success     200 {object} models.CompleteOrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders/{id}/complete [post]
func (h *AdminHandler) CompleteOrder(c *gin.Context) {
	orderOID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	if err := c.Request.ParseMultipartForm(maxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}
	mpForm := c.Request.MultipartForm
	if mpForm == nil || len(mpForm.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no deliverable files uploaded"})
		return
	}

	uploads, err := readUploads(mpForm.File["files"])
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid upload",
			Message: err.Error(),
		})
		return
	}

	result, err := h.orderService.CreateCompletionCheckout(c.Request.Context(), orderOID, uploads, c.PostForm("message"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		case errors.Is(err, services.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "order already completed"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to prepare completion",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.CompleteOrderResponse{
		SessionID: result.SessionID,
		Files:     fileNamesOf(result.Files),
	})
}

// CancelOrder godoc
// @Summary     Cancel an order
// @Description Admin-initiated cancellation: removes the order and its stored
// @Description files, and emails the customer with the given reason.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order id"
// @Param       request body models.AdminCancelOrderRequest true "Cancellation reason"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders/{id} [delete]
func (h *AdminHandler) CancelOrder(c *gin.Context) {
	orderOID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	var req models.AdminCancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := h.orderService.AdminCancelOrder(c.Request.Context(), orderOID, req.Reason); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to cancel order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "order cancelled"})
}

// ListUsers godoc
// @Summary     List users
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page (default 1)"
// @Param       limit query int false "Page size (default 10)"
// @Success     200 {object} map[string]interface{}
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	users, total, err := h.db.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list users",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"total":      total,
		"totalPages": totalPages(total, limit),
	})
}

// ListContacts godoc
// @Summary     List contact submissions
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page (default 1)"
// @Param       limit query int false "Page size (default 10)"
// @Success     200 {object} map[string]interface{}
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/contacts [get]
func (h *AdminHandler) ListContacts(c *gin.Context) {
	page, limit := pageParams(c)

	contacts, total, err := h.db.ListContacts(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list contacts",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts":   contacts,
		"total":      total,
		"totalPages": totalPages(total, limit),
	})
}

// Stats godoc
// @Summary     Dashboard counters
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.StatsResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.db.CountUsers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load stats", Message: err.Error()})
		return
	}
	orders, err := h.db.CountOrders(ctx, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load stats", Message: err.Error()})
		return
	}
	pending, err := h.db.CountOrders(ctx, map[string]interface{}{"status": models.OrderStatusPending})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load stats", Message: err.Error()})
		return
	}
	meetings, err := h.db.CountMeetings(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load stats", Message: err.Error()})
		return
	}
	contacts, err := h.db.CountContacts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load stats", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		Users:    users,
		Orders:   orders,
		Pending:  pending,
		Meetings: meetings,
		Contacts: contacts,
	})
}
