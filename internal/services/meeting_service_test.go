package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agency-backend/internal/models"
)

type meetingFixture struct {
	svc      *MeetingService
	meetings *fakeMeetingStore
	outbox   *fakeOutbox
	user     *models.User
	service  *models.Service
}

func newMeetingFixture() *meetingFixture {
	user := &models.User{Name: "Customer", Email: "customer@example.com"}
	svc := &models.Service{Title: "SEO Audit", Price: 200}

	f := &meetingFixture{
		meetings: newFakeMeetingStore(),
		outbox:   &fakeOutbox{},
		user:     user,
		service:  svc,
	}
	users := newFakeUserStore(user)
	users.admins = []models.User{{Name: "Admin", Email: "admin@example.com"}}
	f.svc = NewMeetingService(f.meetings, newFakeServiceStore(svc), users, f.outbox, zap.NewNop())
	return f
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestScheduleRejectsSameDay(t *testing.T) {
	f := newMeetingFixture()

	_, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID:    f.user.ID,
		ServiceID: f.service.ID,
		Date:      time.Now().Format("2006-01-02"),
		Time:      "23:59",
	})
	assert.ErrorIs(t, err, ErrTooSoon)
}

func TestScheduleRejectsInvalidSlot(t *testing.T) {
	f := newMeetingFixture()

	_, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID:    f.user.ID,
		ServiceID: f.service.ID,
		Date:      "not-a-date",
		Time:      "10:00",
	})
	assert.Error(t, err)
}

func TestScheduleConflictWithinAnHour(t *testing.T) {
	f := newMeetingFixture()
	date := futureDate(3)

	first, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: date, Time: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusPending, first.Status)
	assert.Equal(t, "SEO Audit", first.ServiceTitle)

	// 30 minutes away collides
	_, err = f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: date, Time: "10:30",
	})
	assert.ErrorIs(t, err, ErrConflict)

	// 61 minutes away is fine
	_, err = f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: date, Time: "11:01",
	})
	assert.NoError(t, err)
}

func TestScheduleNotifiesAdmins(t *testing.T) {
	f := newMeetingFixture()

	_, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: futureDate(2), Time: "14:00",
	})
	require.NoError(t, err)
	assert.Contains(t, f.outbox.names(), "meeting-scheduled")
}

func TestAcceptMeeting(t *testing.T) {
	f := newMeetingFixture()

	meeting, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: futureDate(2), Time: "14:00",
	})
	require.NoError(t, err)

	accepted, err := f.svc.Accept(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusAccepted, accepted.Status)
	assert.Contains(t, f.outbox.names(), "meeting-accepted")
}

func TestRescheduleExcludesItselfFromConflictScan(t *testing.T) {
	f := newMeetingFixture()
	date := futureDate(3)

	meeting, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: date, Time: "10:00",
	})
	require.NoError(t, err)

	// moving within its own window must not conflict with itself
	moved, err := f.svc.Reschedule(context.Background(), meeting.ID, date, "10:15")
	require.NoError(t, err)
	assert.Equal(t, "10:15", moved.Time)
	assert.Equal(t, models.MeetingStatusRescheduled, moved.Status)
	assert.False(t, moved.ReminderSent)
	assert.Contains(t, f.outbox.names(), "meeting-rescheduled")
}

func TestRescheduleStillChecksOtherMeetings(t *testing.T) {
	f := newMeetingFixture()
	date := futureDate(3)

	_, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: date, Time: "10:00",
	})
	require.NoError(t, err)

	other, err := f.svc.Schedule(context.Background(), ScheduleInput{
		UserID: f.user.ID, ServiceID: f.service.ID, Date: date, Time: "13:00",
	})
	require.NoError(t, err)

	_, err = f.svc.Reschedule(context.Background(), other.ID, date, "10:20")
	assert.ErrorIs(t, err, ErrConflict)
}
