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

type MeetingsHandler struct {
	meetingService *services.MeetingService
	db             *database.Database
}

func NewMeetingsHandler(meetingService *services.MeetingService, db *database.Database) *MeetingsHandler {
	return &MeetingsHandler{meetingService: meetingService, db: db}
}

func meetingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTooSoon):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "meetings must be booked at least a day ahead"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "this slot is too close to an existing meeting"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to process meeting",
			Message: err.Error(),
		})
	}
}

// ScheduleMeeting godoc
// @Summary     Book a consultation
// @Description Books a slot for a service. Slots must start tomorrow or later
// @Description and be at least an hour away from other meetings for the same
// @Description service on that date.
// @Tags        meetings
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ScheduleMeetingRequest true "Slot"
// @Success     200 {object} models.ScheduledMeeting
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /scheduled-meetings [post]
func (h *MeetingsHandler) ScheduleMeeting(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	var req models.ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	serviceOID, err := primitive.ObjectIDFromHex(req.ServiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid service id"})
		return
	}

	meeting, err := h.meetingService.Schedule(c.Request.Context(), services.ScheduleInput{
		UserID:    userID,
		ServiceID: serviceOID,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		meetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// ListMeetings godoc
// @Summary     List meetings
// @Description Paginated meeting list for the admin dashboard, newest first.
// @Tags        meetings
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page (default 1)"
// @Param       limit query int false "Page size (default 10)"
// @Success     200 {object} models.MeetingListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/scheduled-meetings [get]
func (h *MeetingsHandler) ListMeetings(c *gin.Context) {
	page, limit := pageParams(c)

	meetings, total, err := h.db.ListMeetings(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list meetings",
			Message: err.Error(),
		})
		return
	}
	if meetings == nil {
		meetings = []models.ScheduledMeeting{}
	}

	c.JSON(http.StatusOK, models.MeetingListResponse{
		Meetings:   meetings,
		Total:      total,
		TotalPages: totalPages(total, limit),
	})
}

// AcceptMeeting godoc
// @Summary     Accept a meeting
// @Tags        meetings
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Meeting id"
// @Success     200 {object} models.ScheduledMeeting
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/scheduled-meetings/{id}/accept [patch]
func (h *MeetingsHandler) AcceptMeeting(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid meeting id"})
		return
	}

	meeting, err := h.meetingService.Accept(c.Request.Context(), id)
	if err != nil {
		meetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// RescheduleMeeting godoc
// @Summary     Reschedule a meeting
// @Description Moves the meeting to a new slot under the same lead-time and
// @Description spacing rules as booking, and re-arms its reminder.
// @Tags        meetings
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Meeting id"
// @Param       request body models.RescheduleMeetingRequest true "New slot"
// @Success     200 {object} models.ScheduledMeeting
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/scheduled-meetings/{id}/reschedule [patch]
func (h *MeetingsHandler) RescheduleMeeting(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid meeting id"})
		return
	}

	var req models.RescheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	meeting, err := h.meetingService.Reschedule(c.Request.Context(), id, req.Date, req.Time)
	if err != nil {
		meetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}
