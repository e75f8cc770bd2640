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

func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := d.Collection(CollUsers).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email already registered: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (d *Database) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := d.Collection(CollUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Collection(CollUsers).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpsertGoogleUser links or creates an account from a Google profile and
// returns the stored user.
func (d *Database) UpsertGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*models.User, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"googleId":  googleID,
			"name":      name,
			"avatar":    avatar,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"email":     email,
			"isAdmin":   false,
			"createdAt": now,
		},
	}

	var user models.User
	err := d.Collection(CollUsers).FindOneAndUpdate(ctx,
		bson.M{"email": email},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert google user: %w", err)
	}
	return &user, nil
}

func (d *Database) SetUserOTP(ctx context.Context, id primitive.ObjectID, code string, expiresAt time.Time) error {
	res, err := d.Collection(CollUsers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"otpCode": code, "otpExpiresAt": expiresAt, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) ClearUserOTP(ctx context.Context, id primitive.ObjectID) error {
	_, err := d.Collection(CollUsers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{"otpCode": "", "otpExpiresAt": ""}})
	if err != nil {
		return fmt.Errorf("failed to clear otp: %w", err)
	}
	return nil
}

func (d *Database) GetAdmins(ctx context.Context) ([]models.User, error) {
	cur, err := d.Collection(CollUsers).Find(ctx, bson.M{"isAdmin": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer cur.Close(ctx)

	var admins []models.User
	if err := cur.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}
	return admins, nil
}

func (d *Database) ListUsers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	coll := d.Collection(CollUsers)
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, total, nil
}

func (d *Database) CountUsers(ctx context.Context) (int64, error) {
	return d.Collection(CollUsers).CountDocuments(ctx, bson.M{})
}
