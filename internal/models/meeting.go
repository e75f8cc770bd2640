package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MeetingStatusPending     = "pending"
	MeetingStatusAccepted    = "accepted"
	MeetingStatusRescheduled = "rescheduled"
)

// ScheduledMeeting is a consultation slot booked against a Service.
// Date is YYYY-MM-DD and Time is HH:MM, both in server local time.
type ScheduledMeeting struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       primitive.ObjectID `bson:"user,omitempty" json:"user"`
	UserName     string             `bson:"userName,omitempty" json:"userName,omitempty"`
	UserEmail    string             `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	UserAvatar   string             `bson:"userAvatar,omitempty" json:"userAvatar,omitempty"`
	ServiceID    primitive.ObjectID `bson:"service" json:"service"`
	ServiceTitle string             `bson:"serviceTitle,omitempty" json:"serviceTitle,omitempty"`
	Date         string             `bson:"date" json:"date"`
	Time         string             `bson:"time" json:"time"`
	Status       string             `bson:"status" json:"status"`
	ReminderSent bool               `bson:"reminderSent" json:"reminderSent"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StartsAt combines Date and Time into a wall-clock instant.
func (m *ScheduledMeeting) StartsAt() (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04", m.Date+"T"+m.Time, time.Local)
}
