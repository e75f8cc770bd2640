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

func (d *Database) CreateTempFile(ctx context.Context, tf *models.TempFile) error {
	now := time.Now()
	tf.CreatedAt = now
	if tf.ExpiresAt.IsZero() {
		tf.ExpiresAt = now.Add(models.TempFileTTL)
	}

	res, err := d.Collection(CollTempFiles).InsertOne(ctx, tf)
	if err != nil {
		return fmt.Errorf("failed to create temp file record: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		tf.ID = oid
	}
	return nil
}

func (d *Database) GetTempFile(ctx context.Context, id primitive.ObjectID) (*models.TempFile, error) {
	var tf models.TempFile
	err := d.Collection(CollTempFiles).FindOne(ctx, bson.M{"_id": id}).Decode(&tf)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get temp file record: %w", err)
	}
	return &tf, nil
}

func (d *Database) DeleteTempFile(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.Collection(CollTempFiles).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete temp file record: %w", err)
	}
	return nil
}

// ListExpiredTempFiles returns staged uploads whose expiry has passed.
// The sweeper destroys their storage objects before the TTL index (or the
// sweeper itself) drops the documents.
func (d *Database) ListExpiredTempFiles(ctx context.Context, now time.Time, limit int64) ([]models.TempFile, error) {
	cur, err := d.Collection(CollTempFiles).Find(ctx,
		bson.M{"expiresAt": bson.M{"$lte": now}},
		options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list expired temp files: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.TempFile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode temp files: %w", err)
	}
	return out, nil
}
