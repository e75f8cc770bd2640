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

func (d *Database) CreateService(ctx context.Context, svc *models.Service) error {
	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	res, err := d.Collection(CollServices).InsertOne(ctx, svc)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		svc.ID = oid
	}
	return nil
}

func (d *Database) GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	var svc models.Service
	err := d.Collection(CollServices).FindOne(ctx, bson.M{"_id": id}).Decode(&svc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &svc, nil
}

func (d *Database) ListServices(ctx context.Context) ([]models.Service, error) {
	cur, err := d.Collection(CollServices).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer cur.Close(ctx)

	var services []models.Service
	if err := cur.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (d *Database) UpdateService(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Service, error) {
	update["updatedAt"] = time.Now()

	var svc models.Service
	err := d.Collection(CollServices).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&svc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return &svc, nil
}

func (d *Database) DeleteService(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Collection(CollServices).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
