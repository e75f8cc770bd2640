package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agency-backend/internal/models"
)

func (d *Database) CreateMeeting(ctx context.Context, m *models.ScheduledMeeting) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = models.MeetingStatusPending
	}

	res, err := d.Collection(CollMeetings).InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func (d *Database) GetMeeting(ctx context.Context, id primitive.ObjectID) (*models.ScheduledMeeting, error) {
	var m models.ScheduledMeeting
	err := d.Collection(CollMeetings).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &m, nil
}

// MeetingsForServiceDate returns meetings booked against a service on a
// given date, optionally excluding one (the meeting being rescheduled).
func (d *Database) MeetingsForServiceDate(ctx context.Context, serviceID primitive.ObjectID, date string, exclude primitive.ObjectID) ([]models.ScheduledMeeting, error) {
	filter := bson.M{"service": serviceID, "date": date}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	cur, err := d.Collection(CollMeetings).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer cur.Close(ctx)

	var meetings []models.ScheduledMeeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, fmt.Errorf("failed to decode meetings: %w", err)
	}
	return meetings, nil
}

func (d *Database) UpdateMeetingStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.ScheduledMeeting, error) {
	var m models.ScheduledMeeting
	err := d.Collection(CollMeetings).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting status: %w", err)
	}
	return &m, nil
}

// RescheduleMeeting moves a meeting and resets its reminder so the new
// slot gets its own reminder email.
func (d *Database) RescheduleMeeting(ctx context.Context, id primitive.ObjectID, date, timeOfDay string) (*models.ScheduledMeeting, error) {
	var m models.ScheduledMeeting
	err := d.Collection(CollMeetings).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"date":         date,
			"time":         timeOfDay,
			"status":       models.MeetingStatusRescheduled,
			"reminderSent": false,
			"updatedAt":    time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule meeting: %w", err)
	}
	return &m, nil
}

func (d *Database) ListMeetings(ctx context.Context, page, limit int64) ([]models.ScheduledMeeting, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	coll := d.Collection(CollMeetings)
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer cur.Close(ctx)

	var meetings []models.ScheduledMeeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode meetings: %w", err)
	}
	return meetings, total, nil
}

// ListUnremindedMeetings returns accepted or rescheduled meetings on the
// given dates that have not had a reminder sent yet. The reminder worker
// narrows by exact start time in memory.
func (d *Database) ListUnremindedMeetings(ctx context.Context, dates []string) ([]models.ScheduledMeeting, error) {
	cur, err := d.Collection(CollMeetings).Find(ctx, bson.M{
		"date":         bson.M{"$in": dates},
		"reminderSent": false,
		"status":       bson.M{"$in": bson.A{models.MeetingStatusAccepted, models.MeetingStatusRescheduled}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unreminded meetings: %w", err)
	}
	defer cur.Close(ctx)

	var meetings []models.ScheduledMeeting
	if err := cur.All(ctx, &meetings); err != nil {
		return nil, fmt.Errorf("failed to decode meetings: %w", err)
	}
	return meetings, nil
}

func (d *Database) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.Collection(CollMeetings).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"reminderSent": true, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func (d *Database) CountMeetings(ctx context.Context) (int64, error) {
	return d.Collection(CollMeetings).CountDocuments(ctx, bson.M{})
}
