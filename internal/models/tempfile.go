package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TempFileTTL is how long staged uploads live before the sweeper (and the
// TTL index backstop) reclaims them.
const TempFileTTL = 24 * time.Hour

// TempFile holds uploads staged before checkout completes. ExpiresAt is the
// single source of truth for reclamation: the Mongo TTL index drops the
// document, the sweeper keys off the same field and also removes the
// storage objects the index cannot touch.
type TempFile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID     primitive.ObjectID `bson:"user" json:"user"`
	TempFolder string             `bson:"tempFolder" json:"tempFolder"`
	Files      []FileMeta         `bson:"files" json:"files"`
	ExpiresAt  time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
