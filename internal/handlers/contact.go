package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agency-backend/internal/database"
	"agency-backend/internal/email"
	"agency-backend/internal/models"
)

type ContactHandler struct {
	db     *database.Database
	outbox *email.Outbox
}

func NewContactHandler(db *database.Database, outbox *email.Outbox) *ContactHandler {
	return &ContactHandler{db: db, outbox: outbox}
}

// SubmitContact godoc
// @Summary     Submit a contact form
// @Description Stores the message and emails the sender an acknowledgement. The
// @Description admin dashboard is notified through the change stream.
// @Tags        contact
// @Accept      json
// @Produce     json
// @Param       request body models.ContactRequest true "Contact message"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	contact := &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.db.CreateContact(c.Request.Context(), contact); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save message",
			Message: err.Error(),
		})
		return
	}

	h.outbox.Enqueue("contact-ack", email.ContactAck(contact.Email, contact.Name))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "message received"})
}
