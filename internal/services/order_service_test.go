package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/models"
	"agency-backend/internal/payments"
)

type orderServiceFixture struct {
	svc      *OrderService
	orders   *fakeOrderStore
	temps    *fakeTempStore
	users    *fakeUserStore
	cancels  *fakeCancelStore
	storage  *fakeStorage
	payments *fakePayments
	outbox   *fakeOutbox
	hub      *fakeHub
}

func newOrderServiceFixture(users ...*models.User) *orderServiceFixture {
	f := &orderServiceFixture{
		orders:   newFakeOrderStore(),
		temps:    newFakeTempStore(),
		users:    newFakeUserStore(users...),
		cancels:  newFakeCancelStore(),
		storage:  newFakeStorage(),
		payments: newFakePayments(),
		outbox:   &fakeOutbox{},
		hub:      &fakeHub{},
	}
	f.svc = NewOrderService(f.orders, f.temps, f.users, f.cancels,
		f.storage, f.payments, f.outbox, f.hub, zap.NewNop(), "http://localhost:3000")
	return f
}

func validOrderData(budget string) string {
	form := models.OrderForm{
		Name:               "Test Customer",
		Email:              "customer@example.com",
		Phone:              "+1 555 123 4567",
		ProjectType:        "Website",
		ProjectBudget:      budget,
		Timeline:           time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		ProjectDescription: "A marketing site with a small CMS behind it.",
		PaymentReference:   "ref-123",
		PaymentMethod:      "Stripe",
	}
	raw, _ := json.Marshal(form)
	return string(raw)
}

func stageTempFile(f *orderServiceFixture, userID primitive.ObjectID, names ...string) *models.TempFile {
	folder := "temp_orders/test_1"
	var files []models.FileMeta
	for _, name := range names {
		publicID := folder + "/" + name
		f.storage.assets[publicID] = []byte("content of " + name)
		files = append(files, models.FileMeta{
			Name:         name,
			URL:          "https://cdn.example.com/" + publicID,
			PublicID:     publicID,
			MimeType:     "application/pdf",
			ResourceType: "raw",
		})
	}
	tf := &models.TempFile{
		UserID:     userID,
		TempFolder: folder,
		Files:      files,
		ExpiresAt:  time.Now().Add(models.TempFileTTL),
	}
	_ = f.temps.CreateTempFile(context.Background(), tf)
	return tf
}

func paidInitialSession(f *orderServiceFixture, userID primitive.ObjectID, tempID, orderData string, amountCents int64) *payments.CheckoutSession {
	sess := &payments.CheckoutSession{
		ID:          "cs_test_paid",
		Paid:        true,
		AmountTotal: amountCents,
		Metadata:    payments.InitialPaymentMetadata(userID.Hex(), tempID, orderData).Encode(),
	}
	f.payments.sessions[sess.ID] = sess
	return sess
}

func TestCreateInitialCheckoutAmountMismatch(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec")

	// $100-$500 requires a 150.00 deposit, not 100.00
	_, err := f.svc.CreateInitialCheckout(context.Background(), user.ID, validOrderData("$100-$500"), tf.ID.Hex(), 10000)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestCreateInitialCheckoutMissingTempFiles(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)

	_, err := f.svc.CreateInitialCheckout(context.Background(), user.ID, validOrderData("$100-$500"), primitive.NewObjectID().Hex(), 15000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInitialCheckoutOpensSession(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec")

	sess, err := f.svc.CreateInitialCheckout(context.Background(), user.ID, validOrderData("$1000-$5000"), tf.ID.Hex(), 150000)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	require.Len(t, f.payments.created, 1)
	in := f.payments.created[0]
	assert.Equal(t, int64(150000), in.AmountCents)
	assert.Equal(t, string(payments.IntentInitialPayment), in.Metadata["intent"])
	assert.Contains(t, in.SuccessURL, "{CHECKOUT_SESSION_ID}")
}

func TestFinalizeOrderMovesFilesAndCreatesOrder(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com", Avatar: "https://a/avatar.png"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec.pdf", "notes.pdf")
	sess := paidInitialSession(f, user.ID, tf.ID.Hex(), validOrderData("$100-$500"), 15000)

	result, err := f.svc.FinalizeOrder(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Empty(t, result.Failed)

	order := result.Order
	assert.Regexp(t, orderIDPattern, order.OrderID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusHalfPaid, order.PaymentStatus)
	assert.Equal(t, 150.0, order.InitialPayment)
	assert.Equal(t, sess.ID, order.SessionID)
	require.Len(t, order.Files, 2)
	for _, file := range order.Files {
		assert.Contains(t, file.PublicID, "orders/")
	}

	// staged copies destroyed, record reclaimed
	_, err = f.temps.GetTempFile(context.Background(), tf.ID)
	assert.Error(t, err)
	assert.Contains(t, f.outbox.names(), "order-confirmation")
}

func TestFinalizeOrderIsIdempotent(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec.pdf")
	sess := paidInitialSession(f, user.ID, tf.ID.Hex(), validOrderData("$100-$500"), 15000)

	first, err := f.svc.FinalizeOrder(context.Background(), sess.ID)
	require.NoError(t, err)

	second, err := f.svc.FinalizeOrder(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Order.OrderID, second.Order.OrderID)

	// the confirmation email went out exactly once
	count := 0
	for _, name := range f.outbox.names() {
		if name == "order-confirmation" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFinalizeOrderUnpaidSession(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec.pdf")

	sess := paidInitialSession(f, user.ID, tf.ID.Hex(), validOrderData("$100-$500"), 15000)
	sess.Paid = false

	_, err := f.svc.FinalizeOrder(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotPaid)
}

func TestFinalizeOrderKeepsTempAreaOnPartialFailure(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec.pdf", "bad_scan.pdf")
	f.storage.failNameSubstring = "bad"
	sess := paidInitialSession(f, user.ID, tf.ID.Hex(), validOrderData("$100-$500"), 15000)

	result, err := f.svc.FinalizeOrder(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad_scan.pdf"}, result.Failed)
	require.Len(t, result.Order.Files, 1)

	// temp record stays for a retry; the sweeper is the backstop
	_, err = f.temps.GetTempFile(context.Background(), tf.ID)
	assert.NoError(t, err)
	assert.NotEmpty(t, PartialMoveWarning(result.Failed))
}

func TestStageOrderPartialUploadFailure(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	f.storage.failNameSubstring = "broken"

	form, err := models.ParseOrderForm(validOrderData("$100-$500"))
	require.NoError(t, err)

	result, err := f.svc.StageOrder(context.Background(), user, form, []StagedUpload{
		{Name: "spec.pdf", MimeType: "application/pdf", Data: []byte("ok")},
		{Name: "broken.pdf", MimeType: "application/pdf", Data: []byte("no")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.pdf"}, result.Failed)
	assert.Len(t, result.Files, 1)
	assert.Equal(t, 150.0, result.PaymentAmount)
	assert.NotEmpty(t, result.TempID)
}

func TestStageOrderAllUploadsFailed(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	f.storage.failNameSubstring = "."

	form, err := models.ParseOrderForm(validOrderData("$100-$500"))
	require.NoError(t, err)

	_, err = f.svc.StageOrder(context.Background(), user, form, []StagedUpload{
		{Name: "a.pdf", MimeType: "application/pdf", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, ErrAllUploadsFailed)
}

func TestStageOrderSkipsJSONParts(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)

	form, err := models.ParseOrderForm(validOrderData("$100-$500"))
	require.NoError(t, err)

	result, err := f.svc.StageOrder(context.Background(), user, form, []StagedUpload{
		{Name: "orderData", MimeType: "application/json", Data: []byte("{}")},
		{Name: "spec.pdf", MimeType: "application/pdf", Data: []byte("ok")},
	})
	require.NoError(t, err)
	assert.Len(t, result.Files, 1)
	assert.Equal(t, "spec.pdf", result.Files[0].Name)
}

func TestCreateCompletionCheckoutAndCompleteOrder(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)

	order := &models.Order{
		OrderID:       "AB1234",
		Name:          "Test Customer",
		Email:         "customer@example.com",
		ProjectBudget: "$100-$500",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusHalfPaid,
	}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	checkout, err := f.svc.CreateCompletionCheckout(context.Background(), order.ID, []StagedUpload{
		{Name: "final.zip", MimeType: "application/zip", Data: []byte("deliverable")},
	}, "thanks for your patience")
	require.NoError(t, err)
	require.Len(t, checkout.Files, 1)
	assert.Contains(t, checkout.Files[0].PublicID, "completed_orders/")
	assert.Contains(t, f.outbox.names(), "remaining-payment")

	// the customer pays; webhook and success-page poll both try to complete
	sess := f.payments.sessions[checkout.SessionID]
	meta, err := payments.ParseSessionMetadata(sess.Metadata)
	require.NoError(t, err)

	err = f.svc.CompleteOrder(context.Background(), order.ID, meta.FileMeta, meta.Message, meta.FolderPath)
	require.NoError(t, err)

	err = f.svc.CompleteOrder(context.Background(), order.ID, meta.FileMeta, meta.Message, meta.FolderPath)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	stored, err := f.orders.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	assert.Equal(t, models.PaymentStatusFullPaid, stored.PaymentStatus)

	completedEmails := 0
	for _, name := range f.outbox.names() {
		if name == "order-completed" {
			completedEmails++
		}
	}
	assert.Equal(t, 1, completedEmails)
	assert.Contains(t, f.hub.events, "orderCompleted")
}

func TestCreateCompletionCheckoutRejectsCompletedOrder(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)

	order := &models.Order{
		OrderID: "CD5678",
		Email:   "customer@example.com",
		Status:  models.OrderStatusCompleted,
	}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	_, err := f.svc.CreateCompletionCheckout(context.Background(), order.ID, []StagedUpload{
		{Name: "final.zip", MimeType: "application/zip", Data: []byte("x")},
	}, "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCleanupTempFileByIDIsTolerant(t *testing.T) {
	user := &models.User{Name: "Test", Email: "customer@example.com"}
	f := newOrderServiceFixture(user)
	tf := stageTempFile(f, user.ID, "spec.pdf")

	require.NoError(t, f.svc.CleanupTempFileByID(context.Background(), tf.ID.Hex()))
	// already reclaimed: a second cleanup is a no-op
	require.NoError(t, f.svc.CleanupTempFileByID(context.Background(), tf.ID.Hex()))

	_, err := f.temps.GetTempFile(context.Background(), tf.ID)
	assert.Error(t, err)
}

func ExamplePartialMoveWarning() {
	fmt.Println(PartialMoveWarning([]string{"a.pdf", "b.pdf"}))
	// Output: some files could not be transferred: a.pdf, b.pdf
}
