package meet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// LinkGenerator produces a joinable meeting link for a consultation.
type LinkGenerator interface {
	MeetingLink(ctx context.Context, title string, start time.Time, duration time.Duration) (string, error)
}

// CalendarClient creates Google Calendar events with Meet conference data
// and returns the hangout link.
type CalendarClient struct {
	svc        *calendar.Service
	calendarID string
}

func NewCalendarClient(ctx context.Context, clientID, clientSecret, refreshToken string) (*CalendarClient, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{svc: svc, calendarID: "primary"}, nil
}

func (c *CalendarClient) MeetingLink(ctx context.Context, title string, start time.Time, duration time.Duration) (string, error) {
	if duration <= 0 {
		duration = time.Hour
	}

	event := &calendar.Event{
		Summary: title,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: start.Add(duration).Format(time.RFC3339)},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.New().String(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	if created.HangoutLink == "" {
		return "", fmt.Errorf("calendar event created without a meet link")
	}
	return created.HangoutLink, nil
}

// StaticLinkGenerator is the fallback when no Google Calendar credentials
// are configured: links point at the frontend's own meeting page.
type StaticLinkGenerator struct {
	BaseURL string
}

func (s StaticLinkGenerator) MeetingLink(_ context.Context, _ string, _ time.Time, _ time.Duration) (string, error) {
	return fmt.Sprintf("%s/meet/%s", s.BaseURL, uuid.New().String()), nil
}
