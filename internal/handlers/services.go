package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/database"
	"agency-backend/internal/models"
	"agency-backend/internal/retry"
	"agency-backend/internal/storage"
)

// maxServiceImageSize caps service card images.
const maxServiceImageSize = 5 << 20 // 5MB

const serviceImageFolder = "services"

type ServicesHandler struct {
	db      *database.Database
	storage *storage.Client
	logger  *zap.Logger
}

func NewServicesHandler(db *database.Database, storageClient *storage.Client, logger *zap.Logger) *ServicesHandler {
	return &ServicesHandler{db: db, storage: storageClient, logger: logger}
}

// ListServices godoc
// @Summary     List services
// @Description Public catalog of bookable services, newest first.
// @Tags        services
// @Produce     json
// @Success     200 {array} models.Service
// @Failure     500 {object} models.ErrorResponse
// @Router      /services [get]
func (h *ServicesHandler) ListServices(c *gin.Context) {
	services, err := h.db.ListServices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list services",
			Message: err.Error(),
		})
		return
	}
	if services == nil {
		services = []models.Service{}
	}
	c.JSON(http.StatusOK, services)
}

// readServiceImage pulls the optional image part off the form. A nil
// result with nil error means no image was sent.
func (h *ServicesHandler) readServiceImage(c *gin.Context) (*storage.UploadResult, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	if fh.Size > maxServiceImageSize {
		return nil, errors.New("image exceeds the 5MB limit")
	}
	mimeType := fh.Header.Get("Content-Type")
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, errors.New("image must be jpeg or png")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return nil, err
	}

	var result *storage.UploadResult
	err = retry.Do(retry.DefaultAttempts, retry.DefaultDelay, func() error {
		var uploadErr error
		result, uploadErr = h.storage.Upload(c.Request.Context(), data, serviceImageFolder, fh.Filename, mimeType)
		return uploadErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func bindServiceForm(c *gin.Context) (*models.ServiceRequest, error) {
	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil {
		return nil, errors.New("price must be a number")
	}
	req := &models.ServiceRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       price,
	}
	if len(req.Title) < 3 || len(req.Title) > 100 {
		return nil, errors.New("title must be 3 to 100 characters")
	}
	if len(req.Description) < 10 || len(req.Description) > 1000 {
		return nil, errors.New("description must be 10 to 1000 characters")
	}
	if req.Price <= 0 {
		return nil, errors.New("price must be positive")
	}
	return req, nil
}

// CreateService godoc
// @Summary     Create a service
// @Description Adds a catalog entry with an optional card image (jpeg/png, 5MB).
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       title formData string true "Title"
// @Param       description formData string true "Description"
// @Param       price formData number true "Price"
// @Param       image formData file false "Card image"
// @Success     200 {object} models.Service
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/services [post]
func (h *ServicesHandler) CreateService(c *gin.Context) {
	req, err := bindServiceForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	image, err := h.readServiceImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image", Message: err.Error()})
		return
	}

	svc := &models.Service{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	}
	if image != nil {
		svc.Image = image.URL
		svc.ImageID = image.PublicID
	}

	if err := h.db.CreateService(c.Request.Context(), svc); err != nil {
		if image != nil {
			if derr := h.storage.Destroy(c.Request.Context(), image.PublicID, image.ResourceType); derr != nil {
				h.logger.Warn("failed to clean up service image", zap.Error(derr))
			}
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create service",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, svc)
}

// UpdateService godoc
// @Summary     Update a service
// @Description Updates the catalog entry; a new image replaces and deletes the
// @Description previous one.
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Service id"
// @Param       title formData string true "Title"
// @Param       description formData string true "Description"
// @Param       price formData number true "Price"
// @Param       image formData file false "Card image"
// @Success     200 {object} models.Service
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/services/{id} [put]
func (h *ServicesHandler) UpdateService(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid service id"})
		return
	}

	req, err := bindServiceForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	current, err := h.db.GetService(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load service",
			Message: err.Error(),
		})
		return
	}

	image, err := h.readServiceImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image", Message: err.Error()})
		return
	}

	update := bson.M{
		"title":       req.Title,
		"description": req.Description,
		"price":       req.Price,
	}
	if image != nil {
		update["image"] = image.URL
		update["imageId"] = image.PublicID
	}

	svc, err := h.db.UpdateService(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update service",
			Message: err.Error(),
		})
		return
	}

	if image != nil && current.ImageID != "" {
		if derr := h.storage.Destroy(c.Request.Context(), current.ImageID, "image"); derr != nil {
			h.logger.Warn("failed to delete replaced service image",
				zap.String("publicId", current.ImageID), zap.Error(derr))
		}
	}

	c.JSON(http.StatusOK, svc)
}

// DeleteService godoc
// @Summary     Delete a service
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Service id"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/services/{id} [delete]
func (h *ServicesHandler) DeleteService(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid service id"})
		return
	}

	svc, err := h.db.GetService(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load service",
			Message: err.Error(),
		})
		return
	}

	if err := h.db.DeleteService(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete service",
			Message: err.Error(),
		})
		return
	}

	if svc.ImageID != "" {
		if derr := h.storage.Destroy(c.Request.Context(), svc.ImageID, "image"); derr != nil {
			h.logger.Warn("failed to delete service image",
				zap.String("publicId", svc.ImageID), zap.Error(derr))
		}
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "service deleted"})
}
