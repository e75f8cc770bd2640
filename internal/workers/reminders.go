package workers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/email"
	"agency-backend/internal/meet"
	"agency-backend/internal/models"
	"agency-backend/internal/services"
)

// Reminder lookahead: meetings starting between 30 and 35 minutes from
// now get their link and email. The window is wider than the 10 minute
// cron period plus clock skew, and reminderSent keeps repeats out.
const (
	reminderWindowStart = 30 * time.Minute
	reminderWindowEnd   = 35 * time.Minute
)

type MeetingReminderStore interface {
	ListUnremindedMeetings(ctx context.Context, dates []string) ([]models.ScheduledMeeting, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) error
}

// Reminder emails customers a join link shortly before their accepted
// consultation starts.
type Reminder struct {
	meetings MeetingReminderStore
	links    meet.LinkGenerator
	outbox   services.MailOutbox
	logger   *zap.Logger
	now      func() time.Time
}

func NewReminder(meetings MeetingReminderStore, links meet.LinkGenerator, outbox services.MailOutbox, logger *zap.Logger) *Reminder {
	return &Reminder{meetings: meetings, links: links, outbox: outbox, logger: logger, now: time.Now}
}

// SendDue finds meetings inside the reminder window, generates a link for
// each and enqueues the email. Returns how many reminders went out.
func (r *Reminder) SendDue(ctx context.Context) (int, error) {
	now := r.now()

	// The window can straddle midnight, so both dates are queried.
	dates := []string{now.Format("2006-01-02")}
	if next := now.Add(reminderWindowEnd).Format("2006-01-02"); next != dates[0] {
		dates = append(dates, next)
	}

	meetings, err := r.meetings.ListUnremindedMeetings(ctx, dates)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range meetings {
		start, err := m.StartsAt()
		if err != nil {
			r.logger.Warn("meeting has unparsable slot",
				zap.String("meetingId", m.ID.Hex()), zap.Error(err))
			continue
		}

		until := start.Sub(now)
		if until < reminderWindowStart || until > reminderWindowEnd {
			continue
		}

		link, err := r.links.MeetingLink(ctx, m.ServiceTitle+" consultation", start, time.Hour)
		if err != nil {
			r.logger.Error("failed to create meeting link",
				zap.String("meetingId", m.ID.Hex()), zap.Error(err))
			continue
		}

		r.outbox.Enqueue("meeting-reminder",
			email.MeetingReminder(m.UserEmail, m.UserName, m.ServiceTitle, m.Date, m.Time, link))

		if err := r.meetings.MarkReminderSent(ctx, m.ID); err != nil {
			r.logger.Error("failed to mark reminder sent",
				zap.String("meetingId", m.ID.Hex()), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}
