package workers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/email"
	"agency-backend/internal/models"
)

type fakeReminderStore struct {
	mu       sync.Mutex
	meetings []models.ScheduledMeeting
	marked   []primitive.ObjectID
}

func (f *fakeReminderStore) ListUnremindedMeetings(_ context.Context, _ []string) ([]models.ScheduledMeeting, error) {
	return f.meetings, nil
}

func (f *fakeReminderStore) MarkReminderSent(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

type fakeLinks struct {
	fail bool
}

func (f *fakeLinks) MeetingLink(_ context.Context, _ string, _ time.Time, _ time.Duration) (string, error) {
	if f.fail {
		return "", fmt.Errorf("simulated link failure")
	}
	return "https://meet.example.com/abc", nil
}

type recordingOutbox struct {
	mu       sync.Mutex
	enqueued []string
}

func (r *recordingOutbox) Enqueue(name string, _ email.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued = append(r.enqueued, name)
}

func meetingAt(start time.Time, status string) models.ScheduledMeeting {
	return models.ScheduledMeeting{
		ID:           primitive.NewObjectID(),
		UserName:     "Customer",
		UserEmail:    "customer@example.com",
		ServiceTitle: "SEO Audit",
		Date:         start.Format("2006-01-02"),
		Time:         start.Format("15:04"),
		Status:       status,
	}
}

func TestSendDueOnlyInsideWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)

	due := meetingAt(now.Add(32*time.Minute), models.MeetingStatusAccepted)
	tooSoon := meetingAt(now.Add(10*time.Minute), models.MeetingStatusAccepted)
	tooFar := meetingAt(now.Add(2*time.Hour), models.MeetingStatusAccepted)

	store := &fakeReminderStore{meetings: []models.ScheduledMeeting{due, tooSoon, tooFar}}
	outbox := &recordingOutbox{}

	r := NewReminder(store, &fakeLinks{}, outbox, zap.NewNop())
	r.now = func() time.Time { return now }

	sent, err := r.SendDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"meeting-reminder"}, outbox.enqueued)
	require.Len(t, store.marked, 1)
	assert.Equal(t, due.ID, store.marked[0])
}

func TestSendDueSkipsUnparsableSlots(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)

	broken := models.ScheduledMeeting{
		ID:     primitive.NewObjectID(),
		Date:   "soon",
		Time:   "later",
		Status: models.MeetingStatusAccepted,
	}
	store := &fakeReminderStore{meetings: []models.ScheduledMeeting{broken}}

	r := NewReminder(store, &fakeLinks{}, &recordingOutbox{}, zap.NewNop())
	r.now = func() time.Time { return now }

	sent, err := r.SendDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, store.marked)
}

func TestSendDueLeavesMeetingUnmarkedOnLinkFailure(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	due := meetingAt(now.Add(31*time.Minute), models.MeetingStatusAccepted)

	store := &fakeReminderStore{meetings: []models.ScheduledMeeting{due}}
	outbox := &recordingOutbox{}

	r := NewReminder(store, &fakeLinks{fail: true}, outbox, zap.NewNop())
	r.now = func() time.Time { return now }

	sent, err := r.SendDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, outbox.enqueued)
	assert.Empty(t, store.marked)
}
