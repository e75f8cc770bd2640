package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"agency-backend/internal/email"
	"agency-backend/internal/models"
	"agency-backend/internal/storage"
)

// The services depend on narrow interfaces rather than the concrete
// database and vendor clients, so tests run against hand-rolled fakes.

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	OrderIDExists(ctx context.Context, orderID string) (bool, error)
	CompletePendingOrder(ctx context.Context, id primitive.ObjectID, files []models.FileMeta) (bool, error)
	SetRemainingPaymentSession(ctx context.Context, id primitive.ObjectID, sessionID string) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
}

type TempFileStore interface {
	CreateTempFile(ctx context.Context, tf *models.TempFile) error
	GetTempFile(ctx context.Context, id primitive.ObjectID) (*models.TempFile, error)
	DeleteTempFile(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAdmins(ctx context.Context) ([]models.User, error)
}

type CancelStore interface {
	CreateCancelRequest(ctx context.Context, cr *models.CancelRequest) error
	GetCancelRequest(ctx context.Context, id primitive.ObjectID) (*models.CancelRequest, error)
	DeleteCancelRequest(ctx context.Context, id primitive.ObjectID) error
}

type MeetingStore interface {
	CreateMeeting(ctx context.Context, m *models.ScheduledMeeting) error
	GetMeeting(ctx context.Context, id primitive.ObjectID) (*models.ScheduledMeeting, error)
	MeetingsForServiceDate(ctx context.Context, serviceID primitive.ObjectID, date string, exclude primitive.ObjectID) ([]models.ScheduledMeeting, error)
	UpdateMeetingStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.ScheduledMeeting, error)
	RescheduleMeeting(ctx context.Context, id primitive.ObjectID, date, timeOfDay string) (*models.ScheduledMeeting, error)
}

type ServiceStore interface {
	GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
}

// Storage is the slice of the Cloudinary client the workflows use.
type Storage interface {
	Upload(ctx context.Context, data []byte, folder, fileName, mimeType string) (*storage.UploadResult, error)
	Download(ctx context.Context, publicID, resourceType string) ([]byte, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	DeleteFolder(ctx context.Context, folder string) error
	AssetExists(ctx context.Context, publicID, resourceType string) error
}

// MailOutbox is the fire-and-log email queue.
type MailOutbox interface {
	Enqueue(name string, msg email.Message)
}

// Broadcaster pushes realtime events to the admin room.
type Broadcaster interface {
	ToAdmin(event string, data interface{})
}

// Clock lets tests pin time.
type Clock func() time.Time
