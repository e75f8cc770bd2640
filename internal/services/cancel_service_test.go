package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-backend/internal/models"
)

func TestRequestCancelChecksOwnership(t *testing.T) {
	owner := &models.User{Name: "Owner", Email: "owner@example.com"}
	stranger := &models.User{Name: "Stranger", Email: "stranger@example.com"}
	f := newOrderServiceFixture(owner, stranger)

	order := &models.Order{OrderID: "AB1234", Email: "owner@example.com", Status: models.OrderStatusPending}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	_, err := f.svc.RequestCancel(context.Background(), stranger.ID, order.ID, "changed my mind about this")
	assert.ErrorIs(t, err, ErrForbidden)

	cr, err := f.svc.RequestCancel(context.Background(), owner.ID, order.ID, "changed my mind about this")
	require.NoError(t, err)
	assert.Equal(t, order.ID, cr.OrderID)
}

func TestRequestCancelOnePerOrder(t *testing.T) {
	owner := &models.User{Name: "Owner", Email: "owner@example.com"}
	f := newOrderServiceFixture(owner)

	order := &models.Order{OrderID: "AB1234", Email: "owner@example.com", Status: models.OrderStatusPending}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	_, err := f.svc.RequestCancel(context.Background(), owner.ID, order.ID, "changed my mind about this")
	require.NoError(t, err)

	_, err = f.svc.RequestCancel(context.Background(), owner.ID, order.ID, "asking again just in case")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAcceptCancelRemovesOrderAndAssets(t *testing.T) {
	owner := &models.User{Name: "Owner", Email: "owner@example.com"}
	f := newOrderServiceFixture(owner)

	folder := "orders/owner_1"
	f.storage.assets[folder+"/spec"] = []byte("data")

	order := &models.Order{
		OrderID:         "AB1234",
		Email:           "owner@example.com",
		Status:          models.OrderStatusPending,
		PermanentFolder: folder,
	}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	cr, err := f.svc.RequestCancel(context.Background(), owner.ID, order.ID, "changed my mind about this")
	require.NoError(t, err)

	require.NoError(t, f.svc.AcceptCancel(context.Background(), cr.ID))

	_, err = f.orders.GetOrderByID(context.Background(), order.ID)
	assert.Error(t, err)
	assert.Empty(t, f.storage.assets)
	assert.Contains(t, f.outbox.names(), "cancel-accepted")

	_, err = f.cancels.GetCancelRequest(context.Background(), cr.ID)
	assert.Error(t, err)
}

func TestDeclineCancelKeepsOrder(t *testing.T) {
	owner := &models.User{Name: "Owner", Email: "owner@example.com"}
	f := newOrderServiceFixture(owner)

	order := &models.Order{OrderID: "AB1234", Email: "owner@example.com", Status: models.OrderStatusPending}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	cr, err := f.svc.RequestCancel(context.Background(), owner.ID, order.ID, "changed my mind about this")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeclineCancel(context.Background(), cr.ID))

	_, err = f.orders.GetOrderByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Contains(t, f.outbox.names(), "cancel-declined")
}

func TestAdminCancelOrderEmailsReason(t *testing.T) {
	owner := &models.User{Name: "Owner", Email: "owner@example.com"}
	f := newOrderServiceFixture(owner)

	order := &models.Order{OrderID: "AB1234", Name: "Owner", Email: "owner@example.com", Status: models.OrderStatusPending}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))

	require.NoError(t, f.svc.AdminCancelOrder(context.Background(), order.ID, "scope no longer feasible"))

	_, err := f.orders.GetOrderByID(context.Background(), order.ID)
	assert.Error(t, err)
	assert.Contains(t, f.outbox.names(), "admin-cancelled")
}
