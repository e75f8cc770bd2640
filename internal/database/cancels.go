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

// ErrDuplicateCancelRequest signals the one-request-per-order rule.
var ErrDuplicateCancelRequest = errors.New("cancel request already exists for this order")

func (d *Database) CreateCancelRequest(ctx context.Context, cr *models.CancelRequest) error {
	cr.CreatedAt = time.Now()

	res, err := d.Collection(CollCancelRequests).InsertOne(ctx, cr)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateCancelRequest
	}
	if err != nil {
		return fmt.Errorf("failed to create cancel request: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		cr.ID = oid
	}
	return nil
}

func (d *Database) GetCancelRequest(ctx context.Context, id primitive.ObjectID) (*models.CancelRequest, error) {
	var cr models.CancelRequest
	err := d.Collection(CollCancelRequests).FindOne(ctx, bson.M{"_id": id}).Decode(&cr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cancel request: %w", err)
	}
	return &cr, nil
}

func (d *Database) DeleteCancelRequest(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.Collection(CollCancelRequests).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete cancel request: %w", err)
	}
	return nil
}

// ListCancelRequests pages through requests newest first with the order
// and requester joined in.
func (d *Database) ListCancelRequests(ctx context.Context, page, limit int64) ([]models.CancelRequestView, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	coll := d.Collection(CollCancelRequests)
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cancel requests: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from": CollOrders, "localField": "order", "foreignField": "_id", "as": "orderDoc",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": CollUsers, "localField": "user", "foreignField": "_id", "as": "userDoc",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$orderDoc", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$unwind", Value: bson.M{"path": "$userDoc", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := coll.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cancel requests: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.CancelRequestView
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode cancel requests: %w", err)
	}
	return out, total, nil
}
