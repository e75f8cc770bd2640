package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agency-backend/internal/database"
	"agency-backend/internal/middleware"
	"agency-backend/internal/models"
	"agency-backend/internal/services"
)

type OrdersHandler struct {
	orderService *services.OrderService
	db           *database.Database
}

func NewOrdersHandler(orderService *services.OrderService, db *database.Database) *OrdersHandler {
	return &OrdersHandler{orderService: orderService, db: db}
}

// StageOrder godoc
// @Summary     Submit an order with files
// @Description Validates the order form and stages the uploaded files in temporary
// @Description storage for 24 hours. Returns the temp id and the 50% deposit amount
// @Description needed to open the checkout session. Files that fail to upload are
// @Description listed; the order proceeds with the surviving subset.
// @Tags        orders
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       orderData formData string true "Order form JSON"
// @Param       files formData file true "Project files (25MB total)"
// @Success     200 {object} models.StageOrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /order [post]
func (h *OrdersHandler) StageOrder(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user not found"})
		return
	}

	form, err := models.ParseOrderForm(c.PostForm("orderData"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid order data",
			Message: err.Error(),
		})
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
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no files uploaded"})
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

	result, err := h.orderService.StageOrder(c.Request.Context(), user, form, uploads)
	if err != nil {
		if errors.Is(err, services.ErrAllUploadsFailed) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to upload any files"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to stage order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.StageOrderResponse{
		TempID:        result.TempID,
		PaymentAmount: result.PaymentAmount,
		Files:         result.Uploaded,
		FailedFiles:   result.Failed,
		Warning:       services.PartialMoveWarning(result.Failed),
	})
}

// GetUserOrders godoc
// @Summary     List the caller's orders
// @Description Returns the authenticated user's orders newest first, matched by
// @Description user reference or email.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /order/mine [get]
func (h *OrdersHandler) GetUserOrders(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user not found"})
		return
	}

	orders, err := h.db.ListOrdersForUser(c.Request.Context(), user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list orders",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Orders: orderSummaries(orders),
		Total:  int64(len(orders)),
	})
}

func orderSummaries(orders []models.Order) []models.OrderSummary {
	out := make([]models.OrderSummary, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		filesList := "None"
		if len(o.Files) > 0 {
			filesList = o.FilesList()
		}
		out = append(out, models.OrderSummary{
			ID:             o.ID.Hex(),
			OrderID:        o.OrderID,
			Name:           o.Name,
			Email:          o.Email,
			ProjectType:    o.ProjectType,
			ProjectBudget:  o.ProjectBudget,
			Status:         o.Status,
			PaymentStatus:  o.PaymentStatus,
			InitialPayment: o.InitialPayment,
			FilesList:      filesList,
			Avatar:         o.Avatar,
			CreatedAt:      o.CreatedAt,
		})
	}
	return out
}
