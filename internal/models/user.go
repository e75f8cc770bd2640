package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Password string             `bson:"password,omitempty" json:"-"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsAdmin  bool               `bson:"isAdmin" json:"isAdmin"`
	GoogleID string             `bson:"googleId,omitempty" json:"-"`

	OTPCode      string    `bson:"otpCode,omitempty" json:"-"`
	OTPExpiresAt time.Time `bson:"otpExpiresAt,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
