package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"agency-backend/internal/database"
	"agency-backend/internal/email"
	"agency-backend/internal/models"
	"agency-backend/internal/payments"
	"agency-backend/internal/storage"
)

type fakeOrderStore struct {
	mu        sync.Mutex
	byID      map[string]*models.Order
	bySession map[string]*models.Order
	existIDs  map[string]bool

	existsCalls int
	// existsTrueFor makes the first n OrderIDExists calls report a
	// collision.
	existsTrueFor int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byID:      make(map[string]*models.Order),
		bySession: make(map[string]*models.Order),
		existIDs:  make(map[string]bool),
	}
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	f.byID[order.ID.Hex()] = order
	if order.SessionID != "" {
		f.bySession[order.SessionID] = order
	}
	f.existIDs[order.OrderID] = true
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) GetOrderBySessionID(_ context.Context, sessionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.bySession[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) OrderIDExists(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.existsCalls <= f.existsTrueFor {
		return true, nil
	}
	return f.existIDs[orderID], nil
}

func (f *fakeOrderStore) CompletePendingOrder(_ context.Context, id primitive.ObjectID, files []models.FileMeta) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id.Hex()]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusCompleted
	order.PaymentStatus = models.PaymentStatusFullPaid
	order.Files = files
	return true, nil
}

func (f *fakeOrderStore) SetRemainingPaymentSession(_ context.Context, id primitive.ObjectID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id.Hex()]
	if !ok {
		return database.ErrNotFound
	}
	order.RemainingPaymentSessionID = sessionID
	return nil
}

func (f *fakeOrderStore) DeleteOrder(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[id.Hex()]
	if !ok {
		return database.ErrNotFound
	}
	delete(f.byID, id.Hex())
	delete(f.bySession, order.SessionID)
	return nil
}

type fakeTempStore struct {
	mu   sync.Mutex
	byID map[string]*models.TempFile
}

func newFakeTempStore() *fakeTempStore {
	return &fakeTempStore{byID: make(map[string]*models.TempFile)}
}

func (f *fakeTempStore) CreateTempFile(_ context.Context, tf *models.TempFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tf.ID.IsZero() {
		tf.ID = primitive.NewObjectID()
	}
	f.byID[tf.ID.Hex()] = tf
	return nil
}

func (f *fakeTempStore) GetTempFile(_ context.Context, id primitive.ObjectID) (*models.TempFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tf, ok := f.byID[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	return tf, nil
}

func (f *fakeTempStore) DeleteTempFile(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id.Hex())
	return nil
}

type fakeUserStore struct {
	users  map[string]*models.User
	admins []models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, userEmail string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == userEmail {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserStore) GetAdmins(_ context.Context) ([]models.User, error) {
	return f.admins, nil
}

type fakeCancelStore struct {
	mu      sync.Mutex
	byID    map[string]*models.CancelRequest
	byOrder map[string]bool
}

func newFakeCancelStore() *fakeCancelStore {
	return &fakeCancelStore{
		byID:    make(map[string]*models.CancelRequest),
		byOrder: make(map[string]bool),
	}
}

func (f *fakeCancelStore) CreateCancelRequest(_ context.Context, cr *models.CancelRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byOrder[cr.OrderID.Hex()] {
		return database.ErrDuplicateCancelRequest
	}
	if cr.ID.IsZero() {
		cr.ID = primitive.NewObjectID()
	}
	f.byID[cr.ID.Hex()] = cr
	f.byOrder[cr.OrderID.Hex()] = true
	return nil
}

func (f *fakeCancelStore) GetCancelRequest(_ context.Context, id primitive.ObjectID) (*models.CancelRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.byID[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cr, nil
}

func (f *fakeCancelStore) DeleteCancelRequest(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.byID[id.Hex()]
	if !ok {
		return database.ErrNotFound
	}
	delete(f.byID, id.Hex())
	delete(f.byOrder, cr.OrderID.Hex())
	return nil
}

// fakeStorage keeps assets in memory keyed by public id. File names
// containing failNameSubstring fail to upload.
type fakeStorage struct {
	mu                sync.Mutex
	assets            map[string][]byte
	destroyed         []string
	deletedFolders    []string
	failNameSubstring string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{assets: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, folder, fileName, mimeType string) (*storage.UploadResult, error) {
	if f.failNameSubstring != "" && strings.Contains(fileName, f.failNameSubstring) {
		return nil, fmt.Errorf("simulated upload failure for %s", fileName)
	}
	safe := storage.SafeFileName(fileName)
	publicID := folder + "/" + safe
	f.mu.Lock()
	f.assets[publicID] = data
	f.mu.Unlock()
	return &storage.UploadResult{
		Name:         safe,
		URL:          "https://cdn.example.com/" + publicID,
		PublicID:     publicID,
		ResourceType: storage.ResourceTypeFor(mimeType),
	}, nil
}

func (f *fakeStorage) Download(_ context.Context, publicID, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.assets[publicID]
	if !ok {
		return nil, fmt.Errorf("asset %s not found", publicID)
	}
	return data, nil
}

func (f *fakeStorage) Destroy(_ context.Context, publicID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, publicID)
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func (f *fakeStorage) DeleteByPrefix(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.assets {
		if strings.HasPrefix(id, prefix) {
			delete(f.assets, id)
		}
	}
	return nil
}

func (f *fakeStorage) DeleteFolder(_ context.Context, folder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFolders = append(f.deletedFolders, folder)
	return nil
}

func (f *fakeStorage) AssetExists(_ context.Context, publicID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assets[publicID]; !ok {
		return fmt.Errorf("asset %s not found", publicID)
	}
	return nil
}

// fakePayments returns scripted sessions and records created ones.
type fakePayments struct {
	sessions map[string]*payments.CheckoutSession
	created  []payments.CheckoutInput
	nextID   int
}

func newFakePayments() *fakePayments {
	return &fakePayments{sessions: make(map[string]*payments.CheckoutSession)}
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, in payments.CheckoutInput) (*payments.CheckoutSession, error) {
	f.nextID++
	f.created = append(f.created, in)
	sess := &payments.CheckoutSession{
		ID:          fmt.Sprintf("cs_test_%d", f.nextID),
		URL:         "https://checkout.example.com/" + fmt.Sprintf("cs_test_%d", f.nextID),
		AmountTotal: in.AmountCents,
		Metadata:    in.Metadata,
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakePayments) GetCheckoutSession(_ context.Context, id string) (*payments.CheckoutSession, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

type fakeOutbox struct {
	mu       sync.Mutex
	enqueued []string
	messages []email.Message
}

func (f *fakeOutbox) Enqueue(name string, msg email.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, name)
	f.messages = append(f.messages, msg)
}

func (f *fakeOutbox) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.enqueued...)
}

type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeHub) ToAdmin(event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakeMeetingStore struct {
	mu       sync.Mutex
	byID     map[string]*models.ScheduledMeeting
	existing []models.ScheduledMeeting
}

func newFakeMeetingStore() *fakeMeetingStore {
	return &fakeMeetingStore{byID: make(map[string]*models.ScheduledMeeting)}
}

func (f *fakeMeetingStore) CreateMeeting(_ context.Context, m *models.ScheduledMeeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.byID[m.ID.Hex()] = m
	f.existing = append(f.existing, *m)
	return nil
}

func (f *fakeMeetingStore) GetMeeting(_ context.Context, id primitive.ObjectID) (*models.ScheduledMeeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	return m, nil
}

func (f *fakeMeetingStore) MeetingsForServiceDate(_ context.Context, serviceID primitive.ObjectID, date string, exclude primitive.ObjectID) ([]models.ScheduledMeeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScheduledMeeting
	for _, m := range f.existing {
		if m.ServiceID == serviceID && m.Date == date && m.ID != exclude {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMeetingStore) UpdateMeetingStatus(_ context.Context, id primitive.ObjectID, status string) (*models.ScheduledMeeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	m.Status = status
	return m, nil
}

func (f *fakeMeetingStore) RescheduleMeeting(_ context.Context, id primitive.ObjectID, date, timeOfDay string) (*models.ScheduledMeeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	m.Date = date
	m.Time = timeOfDay
	m.Status = models.MeetingStatusRescheduled
	m.ReminderSent = false
	for i := range f.existing {
		if f.existing[i].ID == id {
			f.existing[i] = *m
		}
	}
	return m, nil
}

type fakeServiceStore struct {
	services map[string]*models.Service
}

func newFakeServiceStore(services ...*models.Service) *fakeServiceStore {
	f := &fakeServiceStore{services: make(map[string]*models.Service)}
	for _, s := range services {
		if s.ID.IsZero() {
			s.ID = primitive.NewObjectID()
		}
		f.services[s.ID.Hex()] = s
	}
	return f
}

func (f *fakeServiceStore) GetService(_ context.Context, id primitive.ObjectID) (*models.Service, error) {
	s, ok := f.services[id.Hex()]
	if !ok {
		return nil, database.ErrNotFound
	}
	return s, nil
}
