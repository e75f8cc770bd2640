package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle. A pending order has received its deposit; a completed
// order has received the remaining balance.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"

	PaymentStatusHalfPaid = "half_paid"
	PaymentStatusFullPaid = "full_paid"
)

// FileMeta describes one stored asset. PublicID and ResourceType are what
// Cloudinary needs to address the object again; URL is the delivery URL.
type FileMeta struct {
	Name         string `bson:"name" json:"name"`
	URL          string `bson:"url" json:"url"`
	PublicID     string `bson:"publicId" json:"publicId"`
	MimeType     string `bson:"mimeType" json:"mimeType"`
	ResourceType string `bson:"resourceType" json:"resourceType"`
}

type Order struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderID            string             `bson:"orderId" json:"orderId"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone" json:"phone"`
	ProjectType        string             `bson:"projectType" json:"projectType"`
	ProjectBudget      string             `bson:"projectBudget" json:"projectBudget"`
	Timeline           time.Time          `bson:"timeline" json:"timeline"`
	ProjectDescription string             `bson:"projectDescription" json:"projectDescription"`
	PaymentReference   string             `bson:"paymentReference" json:"paymentReference"`
	PaymentMethod      string             `bson:"paymentMethod" json:"paymentMethod"`
	Files              []FileMeta         `bson:"files" json:"files"`
	UserID             primitive.ObjectID `bson:"user,omitempty" json:"user"`
	Avatar             string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Status             string             `bson:"status" json:"status"`
	PaymentStatus      string             `bson:"paymentStatus" json:"paymentStatus"`
	InitialPayment     float64            `bson:"initialPayment" json:"initialPayment"`

	// SessionID is the phase-1 checkout session; it doubles as the
	// idempotency key against webhook replays.
	SessionID                 string `bson:"sessionId,omitempty" json:"-"`
	RemainingPaymentSessionID string `bson:"remainingPaymentSessionId,omitempty" json:"-"`

	TempFolder      string    `bson:"tempFolder,omitempty" json:"-"`
	PermanentFolder string    `bson:"permanentFolder,omitempty" json:"-"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FilesList renders the stored file names as a single comma-separated
// string for list views and notifications.
func (o *Order) FilesList() string {
	names := make([]string, 0, len(o.Files))
	for _, f := range o.Files {
		names = append(names, f.Name)
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
