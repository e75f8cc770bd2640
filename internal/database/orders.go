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

func (d *Database) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := d.Collection(CollOrders).InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return nil
}

func (d *Database) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := d.Collection(CollOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// GetOrderBySessionID looks an order up by its phase-1 checkout session.
// Used as the idempotency probe before finalizing.
func (d *Database) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := d.Collection(CollOrders).FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by session: %w", err)
	}
	return &order, nil
}

func (d *Database) OrderIDExists(ctx context.Context, orderID string) (bool, error) {
	count, err := d.Collection(CollOrders).CountDocuments(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return false, fmt.Errorf("failed to check order id: %w", err)
	}
	return count > 0, nil
}

// CompletePendingOrder flips a pending order to completed with the
// delivered files. The filter on status makes the operation idempotent:
// the loser of a webhook/poll race matches nothing and gets false back.
func (d *Database) CompletePendingOrder(ctx context.Context, id primitive.ObjectID, files []models.FileMeta) (bool, error) {
	res, err := d.Collection(CollOrders).UpdateOne(ctx,
		bson.M{"_id": id, "status": models.OrderStatusPending},
		bson.M{
			"$set": bson.M{
				"status":        models.OrderStatusCompleted,
				"paymentStatus": models.PaymentStatusFullPaid,
				"files":         files,
				"updatedAt":     time.Now(),
			},
			"$unset": bson.M{"remainingPaymentSessionId": ""},
		})
	if err != nil {
		return false, fmt.Errorf("failed to complete order: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (d *Database) SetRemainingPaymentSession(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	res, err := d.Collection(CollOrders).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"remainingPaymentSessionId": sessionID, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to store remaining payment session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Collection(CollOrders).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrdersForUser returns the user's orders newest first, matching by
// either the user reference or the order email (guest orders claimed by a
// later account with the same address).
func (d *Database) ListOrdersForUser(ctx context.Context, userID primitive.ObjectID, email string) ([]models.Order, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"user": userID},
		bson.M{"email": email},
	}}
	cur, err := d.Collection(CollOrders).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (d *Database) ListOrders(ctx context.Context, page, limit int64) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	coll := d.Collection(CollOrders)
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

func (d *Database) CountOrders(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return d.Collection(CollOrders).CountDocuments(ctx, filter)
}
