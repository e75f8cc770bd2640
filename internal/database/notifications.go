package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agency-backend/internal/models"
)

func (d *Database) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if _, err := d.Collection(CollNotifications).InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (d *Database) ListNotifications(ctx context.Context, limit int64) ([]models.Notification, error) {
	if limit < 1 {
		limit = 100
	}
	cur, err := d.Collection(CollNotifications).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return out, nil
}

func (d *Database) MarkNotificationsViewed(ctx context.Context) (int64, error) {
	res, err := d.Collection(CollNotifications).UpdateMany(ctx,
		bson.M{"viewed": false},
		bson.M{"$set": bson.M{"viewed": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications viewed: %w", err)
	}
	return res.ModifiedCount, nil
}
