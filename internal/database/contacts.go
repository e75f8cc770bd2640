package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agency-backend/internal/models"
)

func (d *Database) CreateContact(ctx context.Context, contact *models.Contact) error {
	contact.CreatedAt = time.Now()

	res, err := d.Collection(CollContacts).InsertOne(ctx, contact)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		contact.ID = oid
	}
	return nil
}

func (d *Database) ListContacts(ctx context.Context, page, limit int64) ([]models.Contact, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	coll := d.Collection(CollContacts)
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer cur.Close(ctx)

	var contacts []models.Contact
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return contacts, total, nil
}

func (d *Database) CountContacts(ctx context.Context) (int64, error) {
	return d.Collection(CollContacts).CountDocuments(ctx, bson.M{})
}
