package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CancelRequest is a customer's request to cancel an order. At most one per
// order (unique index); the document is deleted when an admin accepts or
// declines it.
type CancelRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderID   primitive.ObjectID `bson:"order" json:"order"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Reason    string             `bson:"reason" json:"reason"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// CancelRequestView is the admin list shape with the order and requester
// joined in at read time.
type CancelRequestView struct {
	CancelRequest `bson:",inline"`
	Order         *Order `bson:"orderDoc,omitempty" json:"orderDoc,omitempty"`
	User          *User  `bson:"userDoc,omitempty" json:"userDoc,omitempty"`
}
