package realtime

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"agency-backend/internal/database"
	"agency-backend/internal/models"
)

// Watcher tails Mongo change streams and fans events out to the hub.
// Inserts that admins act on (orders, contacts, meetings, cancel requests)
// are also appended to the notification log so they survive reconnects.
type Watcher struct {
	db     *database.Database
	hub    Broadcaster
	logger *zap.Logger
}

func NewWatcher(db *database.Database, hub Broadcaster, logger *zap.Logger) *Watcher {
	return &Watcher{db: db, hub: hub, logger: logger}
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.M `bson:"fullDocument"`
}

// Start spawns one goroutine per watched collection. Change streams need a
// replica set; on standalone Mongo the watch fails and is logged, the rest
// of the service keeps running.
func (w *Watcher) Start(ctx context.Context) {
	for _, coll := range database.WatchedCollections {
		go w.watch(ctx, coll)
	}
}

func (w *Watcher) watch(ctx context.Context, collName string) {
	stream, err := w.db.Collection(collName).Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		w.logger.Error("change stream unavailable",
			zap.String("collection", collName), zap.Error(err))
		return
	}
	defer stream.Close(ctx)

	w.logger.Info("change stream started", zap.String("collection", collName))

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			w.logger.Error("failed to decode change event",
				zap.String("collection", collName), zap.Error(err))
			continue
		}
		w.dispatch(ctx, collName, ev)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		w.logger.Error("change stream closed",
			zap.String("collection", collName), zap.Error(err))
	}
}

func (w *Watcher) dispatch(ctx context.Context, collName string, ev changeEvent) {
	switch collName {
	case database.CollUsers:
		w.onUserChange(ctx, ev)
	case database.CollContacts:
		w.onContactChange(ctx, ev)
	case database.CollServices:
		w.onServiceChange(ctx, ev)
	case database.CollOrders:
		w.onOrderChange(ctx, ev)
	case database.CollMeetings:
		w.onMeetingChange(ctx, ev)
	case database.CollCancelRequests:
		w.onCancelRequestChange(ctx, ev)
	}
}

func (w *Watcher) saveNotification(ctx context.Context, kind string, data bson.M) {
	err := w.db.InsertNotification(ctx, &models.Notification{
		Type:   kind,
		Data:   data,
		Viewed: false,
	})
	if err != nil {
		w.logger.Error("failed to save notification",
			zap.String("type", kind), zap.Error(err))
	}
}

func (w *Watcher) onUserChange(ctx context.Context, ev changeEvent) {
	userID := ev.DocumentKey.ID
	room := UserRoom(userID.Hex())

	switch ev.OperationType {
	case "delete":
		payload := bson.M{
			"operationType": "delete",
			"documentKey":   bson.M{"_id": userID},
			"userId":        userID,
		}
		w.hub.ToRoom(room, "userChange", payload)
		w.hub.ToAdmin("userChange", payload)

	case "insert", "update":
		user, err := w.db.GetUserByID(ctx, userID)
		if err != nil {
			w.logger.Error("failed to load changed user", zap.Error(err))
			return
		}
		payload := bson.M{
			"operationType": ev.OperationType,
			"fullDocument": bson.M{
				"_id":       user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"avatar":    user.Avatar,
				"isAdmin":   user.IsAdmin,
				"createdAt": user.CreatedAt,
			},
			"userId": userID,
		}
		if ev.OperationType == "update" {
			w.hub.ToRoom(room, "userChange", payload)
		}
		w.hub.ToAdmin("userChange", payload)
	}
}

func (w *Watcher) onContactChange(ctx context.Context, ev changeEvent) {
	if ev.OperationType != "insert" {
		return
	}
	payload := bson.M{"operationType": "insert"}
	for k, v := range ev.FullDocument {
		payload[k] = v
	}
	w.hub.ToAdmin("contactChange", payload)
	w.saveNotification(ctx, "contact", payload)
}

func (w *Watcher) onServiceChange(_ context.Context, ev changeEvent) {
	switch ev.OperationType {
	case "insert":
		w.hub.Emit("serviceCreated", ev.FullDocument)
	case "update":
		w.hub.Emit("serviceUpdated", ev.FullDocument)
	case "delete":
		w.hub.Emit("serviceDeleted", bson.M{"id": ev.DocumentKey.ID})
	}
}

func (w *Watcher) onOrderChange(ctx context.Context, ev changeEvent) {
	if ev.OperationType != "insert" {
		return
	}
	order, err := w.db.GetOrderByID(ctx, ev.DocumentKey.ID)
	if err != nil {
		w.logger.Error("failed to load changed order", zap.Error(err))
		return
	}

	payload := bson.M{
		"operationType": "insert",
		"fullDocument":  orderPayload(ctx, w.db, order),
	}
	w.hub.ToAdmin("orderChange", payload)
	w.saveNotification(ctx, "order", payload)
}

func (w *Watcher) onMeetingChange(ctx context.Context, ev changeEvent) {
	if ev.OperationType != "insert" && ev.OperationType != "update" {
		return
	}
	meeting, err := w.db.GetMeeting(ctx, ev.DocumentKey.ID)
	if err != nil {
		w.logger.Error("failed to load changed meeting", zap.Error(err))
		return
	}

	payload := bson.M{
		"operationType": ev.OperationType,
		"_id":           meeting.ID,
		"user": bson.M{
			"name":   meeting.UserName,
			"email":  meeting.UserEmail,
			"avatar": meeting.UserAvatar,
		},
		"service": bson.M{"title": meeting.ServiceTitle},
		"date":    meeting.Date,
		"time":    meeting.Time,
		"status":  meeting.Status,
	}
	w.hub.ToAdmin("meetingChange", payload)
	w.saveNotification(ctx, "meeting", payload)
}

func (w *Watcher) onCancelRequestChange(ctx context.Context, ev changeEvent) {
	if ev.OperationType != "insert" {
		return
	}
	cr, err := w.db.GetCancelRequest(ctx, ev.DocumentKey.ID)
	if err != nil {
		w.logger.Error("failed to load changed cancel request", zap.Error(err))
		return
	}

	doc := bson.M{
		"_id":       cr.ID,
		"reason":    cr.Reason,
		"createdAt": cr.CreatedAt,
	}
	if order, err := w.db.GetOrderByID(ctx, cr.OrderID); err == nil {
		doc["order"] = orderPayload(ctx, w.db, order)
	}

	payload := bson.M{
		"operationType": "insert",
		"fullDocument":  doc,
	}
	w.hub.ToAdmin("cancelRequestChange", payload)
	w.saveNotification(ctx, "cancelRequest", payload)
}

// orderPayload is the admin-facing order shape: the customer joined in and
// a flattened file list for display.
func orderPayload(ctx context.Context, db *database.Database, order *models.Order) bson.M {
	filesList := "None"
	if len(order.Files) > 0 {
		filesList = order.FilesList()
	}

	user := bson.M{}
	if !order.UserID.IsZero() {
		if u, err := db.GetUserByID(ctx, order.UserID); err == nil {
			user = bson.M{"name": u.Name, "email": u.Email, "avatar": u.Avatar}
		}
	}

	return bson.M{
		"_id":                order.ID,
		"orderId":            order.OrderID,
		"phone":              order.Phone,
		"projectType":        order.ProjectType,
		"projectBudget":      order.ProjectBudget,
		"timeline":           order.Timeline,
		"projectDescription": order.ProjectDescription,
		"paymentReference":   order.PaymentReference,
		"paymentMethod":      order.PaymentMethod,
		"files":              order.Files,
		"filesList":          filesList,
		"user":               user,
		"createdAt":          order.CreatedAt,
	}
}
