package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// Collection names. The change stream watcher iterates WatchedCollections,
// so anything added here that should reach the admin room must be listed
// there too.
const (
	CollUsers          = "users"
	CollOrders         = "orders"
	CollTempFiles      = "tempfiles"
	CollContacts       = "contacts"
	CollServices       = "services"
	CollMeetings       = "scheduledmeetings"
	CollCancelRequests = "cancelrequests"
	CollNotifications  = "notifications"
)

var WatchedCollections = []string{
	CollUsers, CollOrders, CollContacts, CollServices, CollMeetings, CollCancelRequests,
}

type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri, name string) (*Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Database{client: client, db: client.Database(name)}, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *Database) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// EnsureIndexes creates the indexes the workflow relies on:
// unique user emails, unique human order ids, at most one cancel request
// per order, and the TTL backstop on staged uploads.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	type indexSpec struct {
		coll   string
		models []mongo.IndexModel
	}

	specs := []indexSpec{
		{CollUsers, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{CollOrders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{CollTempFiles, []mongo.IndexModel{
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		}},
		{CollCancelRequests, []mongo.IndexModel{
			{Keys: bson.D{{Key: "order", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{CollMeetings, []mongo.IndexModel{
			{Keys: bson.D{{Key: "service", Value: 1}, {Key: "date", Value: 1}}},
		}},
		{CollNotifications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		}},
	}

	for _, spec := range specs {
		if _, err := d.Collection(spec.coll).Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", spec.coll, err)
		}
	}
	return nil
}
