package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agency-backend/internal/database"
	"agency-backend/internal/models"
)

type NotificationsHandler struct {
	db *database.Database
}

func NewNotificationsHandler(db *database.Database) *NotificationsHandler {
	return &NotificationsHandler{db: db}
}

// ListNotifications godoc
// @Summary     Notification replay log
// @Description Returns recent notifications newest first, so an admin client
// @Description reconnecting after downtime can catch up on missed events.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       limit query int false "Max entries (default 100)"
// @Success     200 {array} models.Notification
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/notifications [get]
func (h *NotificationsHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)

	notifications, err := h.db.ListNotifications(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list notifications",
			Message: err.Error(),
		})
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkViewed godoc
// @Summary     Mark all notifications viewed
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} map[string]int64 "updated count"
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/notifications/viewed [patch]
func (h *NotificationsHandler) MarkViewed(c *gin.Context) {
	updated, err := h.db.MarkNotificationsViewed(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to mark notifications viewed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
