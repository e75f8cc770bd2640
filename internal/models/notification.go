package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an append-only replay log entry for the admin room, so
// events raised while no admin socket was connected are not lost.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Type      string             `bson:"type" json:"type"`
	Data      bson.M             `bson:"data" json:"data"`
	Viewed    bool               `bson:"viewed" json:"viewed"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
