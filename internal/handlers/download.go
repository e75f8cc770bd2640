package handlers

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/database"
	"agency-backend/internal/models"
	"agency-backend/internal/storage"
)

type DownloadHandler struct {
	db      *database.Database
	storage *storage.Client
	logger  *zap.Logger
}

func NewDownloadHandler(db *database.Database, storageClient *storage.Client, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{db: db, storage: storageClient, logger: logger}
}

const orderDetailsTmpl = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order {{.OrderID}}</title></head>
<body style="font-family:Arial,Helvetica,sans-serif;max-width:720px;margin:32px auto;">
  <h1>Order {{.OrderID}}</h1>
  <table border="0" cellpadding="6">
    <tr><td><strong>Customer</strong></td><td>{{.Name}} ({{.Email}})</td></tr>
    <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
    <tr><td><strong>Project type</strong></td><td>{{.ProjectType}}</td></tr>
    <tr><td><strong>Budget</strong></td><td>{{.ProjectBudget}}</td></tr>
    <tr><td><strong>Timeline</strong></td><td>{{.Timeline.Format "2006-01-02"}}</td></tr>
    <tr><td><strong>Status</strong></td><td>{{.Status}} / {{.PaymentStatus}}</td></tr>
    <tr><td><strong>Deposit paid</strong></td><td>${{printf "%.2f" .InitialPayment}}</td></tr>
    <tr><td><strong>Placed</strong></td><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td></tr>
  </table>
  <h2>Description</h2>
  <p>{{.ProjectDescription}}</p>
  <h2>Files</h2>
  <ul>
  {{range .Files}}<li>{{.Name}}</li>
  {{end}}</ul>
</body>
</html>`

var orderDetails = template.Must(template.New("order-details").Parse(orderDetailsTmpl))

// DownloadOrder godoc
// @Summary     Download an order as a zip
// @Description Bundles the order details document and every stored file into a
// @Description zip archive. Files that cannot be fetched are skipped and logged
// @Description rather than failing the whole download.
// @Tags        admin
// @Produce     application/zip
// @Security    Bearer
// @Param       id path string true "Order id"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders/{id}/download [get]
func (h *DownloadHandler) DownloadOrder(c *gin.Context) {
	orderOID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	order, err := h.db.GetOrderByID(c.Request.Context(), orderOID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load order",
			Message: err.Error(),
		})
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	details, err := zw.Create("order-details.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to build archive",
			Message: err.Error(),
		})
		return
	}
	if err := orderDetails.Execute(details, order); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to render order details",
			Message: err.Error(),
		})
		return
	}

	for _, f := range order.Files {
		data, err := h.storage.Download(c.Request.Context(), f.PublicID, f.ResourceType)
		if err != nil {
			h.logger.Warn("skipping file in order archive",
				zap.String("orderId", order.OrderID),
				zap.String("publicId", f.PublicID),
				zap.Error(err))
			continue
		}
		entry, err := zw.Create("files/" + f.Name)
		if err != nil {
			h.logger.Warn("failed to add file to order archive",
				zap.String("file", f.Name), zap.Error(err))
			continue
		}
		if _, err := entry.Write(data); err != nil {
			h.logger.Warn("failed to write file into order archive",
				zap.String("file", f.Name), zap.Error(err))
		}
	}

	if err := zw.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to finish archive",
			Message: err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="order-%s.zip"`, order.OrderID))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}
