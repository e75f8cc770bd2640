package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/email"
	"agency-backend/internal/models"
)

// minMeetingGap is the exclusion window around an existing meeting for the
// same service: a new slot strictly closer than this is rejected.
const minMeetingGap = time.Hour

type MeetingService struct {
	meetings MeetingStore
	services ServiceStore
	users    UserStore
	outbox   MailOutbox
	logger   *zap.Logger
	now      Clock
}

func NewMeetingService(meetings MeetingStore, svcs ServiceStore, users UserStore, outbox MailOutbox, logger *zap.Logger) *MeetingService {
	return &MeetingService{
		meetings: meetings,
		services: svcs,
		users:    users,
		outbox:   outbox,
		logger:   logger,
		now:      time.Now,
	}
}

type ScheduleInput struct {
	UserID    primitive.ObjectID
	ServiceID primitive.ObjectID
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
}

func parseSlot(date, timeOfDay string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02T15:04", date+"T"+timeOfDay, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time: %w", err)
	}
	return t, nil
}

// nextMidnight is the earliest allowed meeting start: the beginning of
// tomorrow.
func (s *MeetingService) nextMidnight() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

func (s *MeetingService) checkSlot(ctx context.Context, serviceID primitive.ObjectID, date, timeOfDay string, exclude primitive.ObjectID) (time.Time, error) {
	slot, err := parseSlot(date, timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	if slot.Before(s.nextMidnight()) {
		return time.Time{}, ErrTooSoon
	}

	existing, err := s.meetings.MeetingsForServiceDate(ctx, serviceID, date, exclude)
	if err != nil {
		return time.Time{}, err
	}
	for _, m := range existing {
		other, err := m.StartsAt()
		if err != nil {
			continue
		}
		gap := slot.Sub(other)
		if gap < 0 {
			gap = -gap
		}
		if gap < minMeetingGap {
			return time.Time{}, ErrConflict
		}
	}
	return slot, nil
}

// Schedule books a consultation. Slots before tomorrow are rejected, as
// is anything within an hour of an existing meeting for the same service.
// Admins are emailed in the background.
func (s *MeetingService) Schedule(ctx context.Context, in ScheduleInput) (*models.ScheduledMeeting, error) {
	if _, err := s.checkSlot(ctx, in.ServiceID, in.Date, in.Time, primitive.NilObjectID); err != nil {
		return nil, err
	}

	svc, err := s.services.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, s.translateMeeting(err)
	}
	user, err := s.users.GetUserByID(ctx, in.UserID)
	if err != nil {
		return nil, s.translateMeeting(err)
	}

	meeting := &models.ScheduledMeeting{
		UserID:       user.ID,
		UserName:     user.Name,
		UserEmail:    user.Email,
		UserAvatar:   user.Avatar,
		ServiceID:    svc.ID,
		ServiceTitle: svc.Title,
		Date:         in.Date,
		Time:         in.Time,
		Status:       models.MeetingStatusPending,
	}
	if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
		return nil, err
	}

	admins, err := s.users.GetAdmins(ctx)
	if err != nil {
		s.logger.Error("failed to list admins for meeting email", zap.Error(err))
	}
	for _, admin := range admins {
		s.outbox.Enqueue("meeting-scheduled",
			email.MeetingScheduled(admin.Email, admin.Name, user.Name, svc.Title, in.Date, in.Time))
	}

	return meeting, nil
}

// Accept confirms a pending meeting and emails the customer.
func (s *MeetingService) Accept(ctx context.Context, id primitive.ObjectID) (*models.ScheduledMeeting, error) {
	meeting, err := s.meetings.UpdateMeetingStatus(ctx, id, models.MeetingStatusAccepted)
	if err != nil {
		return nil, s.translateMeeting(err)
	}

	s.outbox.Enqueue("meeting-accepted",
		email.MeetingAccepted(meeting.UserEmail, meeting.UserName, meeting.ServiceTitle, meeting.Date, meeting.Time))
	return meeting, nil
}

// Reschedule moves a meeting to a new slot under the same guards as
// Schedule, excluding the meeting itself from the conflict scan.
func (s *MeetingService) Reschedule(ctx context.Context, id primitive.ObjectID, date, timeOfDay string) (*models.ScheduledMeeting, error) {
	current, err := s.meetings.GetMeeting(ctx, id)
	if err != nil {
		return nil, s.translateMeeting(err)
	}

	if _, err := s.checkSlot(ctx, current.ServiceID, date, timeOfDay, current.ID); err != nil {
		return nil, err
	}

	meeting, err := s.meetings.RescheduleMeeting(ctx, id, date, timeOfDay)
	if err != nil {
		return nil, s.translateMeeting(err)
	}

	s.outbox.Enqueue("meeting-rescheduled",
		email.MeetingRescheduled(meeting.UserEmail, meeting.UserName, meeting.ServiceTitle, date, timeOfDay))
	return meeting, nil
}

func (s *MeetingService) translateMeeting(err error) error {
	return translateNotFound(err)
}
