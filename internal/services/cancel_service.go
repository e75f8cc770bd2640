package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"agency-backend/internal/database"
	"agency-backend/internal/email"
	"agency-backend/internal/models"
)

// RequestCancel files a cancellation request. Ownership is established by
// email match between the requester and the order, so orders placed
// before the account existed can still be cancelled. One request per
// order.
func (s *OrderService) RequestCancel(ctx context.Context, userID primitive.ObjectID, orderID primitive.ObjectID, reason string) (*models.CancelRequest, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, s.translate(err)
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.translate(err)
	}
	if user.Email != order.Email {
		return nil, ErrForbidden
	}

	cr := &models.CancelRequest{
		OrderID: order.ID,
		UserID:  user.ID,
		Reason:  reason,
	}
	if err := s.cancels.CreateCancelRequest(ctx, cr); err != nil {
		if errors.Is(err, database.ErrDuplicateCancelRequest) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return cr, nil
}

// AcceptCancel deletes the order, its stored assets and the request, then
// emails the customer. Storage failures are logged; the order record is
// removed regardless so the customer is not billed further.
func (s *OrderService) AcceptCancel(ctx context.Context, requestID primitive.ObjectID) error {
	cr, err := s.cancels.GetCancelRequest(ctx, requestID)
	if err != nil {
		return s.translate(err)
	}
	order, err := s.orders.GetOrderByID(ctx, cr.OrderID)
	if err != nil {
		return s.translate(err)
	}

	s.deleteOrderAssets(ctx, order)

	if err := s.orders.DeleteOrder(ctx, order.ID); err != nil {
		return s.translate(err)
	}
	if err := s.cancels.DeleteCancelRequest(ctx, cr.ID); err != nil {
		return err
	}

	s.outbox.Enqueue("cancel-accepted",
		email.CancelAccepted(order.Email, order.Name, order.OrderID))
	return nil
}

// DeclineCancel removes the request and informs the customer; the order
// is untouched.
func (s *OrderService) DeclineCancel(ctx context.Context, requestID primitive.ObjectID) error {
	cr, err := s.cancels.GetCancelRequest(ctx, requestID)
	if err != nil {
		return s.translate(err)
	}
	order, err := s.orders.GetOrderByID(ctx, cr.OrderID)
	if err != nil {
		return s.translate(err)
	}

	if err := s.cancels.DeleteCancelRequest(ctx, cr.ID); err != nil {
		return err
	}

	s.outbox.Enqueue("cancel-declined",
		email.CancelDeclined(order.Email, order.Name, order.OrderID))
	return nil
}

// AdminCancelOrder is the admin-initiated cancellation: no request
// involved, the reason goes straight into the customer email.
func (s *OrderService) AdminCancelOrder(ctx context.Context, orderID primitive.ObjectID, reason string) error {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return s.translate(err)
	}

	s.deleteOrderAssets(ctx, order)

	if err := s.orders.DeleteOrder(ctx, order.ID); err != nil {
		return s.translate(err)
	}

	s.outbox.Enqueue("admin-cancelled",
		email.AdminCancelled(order.Email, order.Name, order.OrderID, reason))
	return nil
}

func (s *OrderService) deleteOrderAssets(ctx context.Context, order *models.Order) {
	if order.PermanentFolder == "" {
		return
	}
	if err := s.storage.DeleteByPrefix(ctx, order.PermanentFolder); err != nil {
		s.logger.Warn("failed to delete order assets",
			zap.String("folder", order.PermanentFolder), zap.Error(err))
	}
	if err := s.storage.DeleteFolder(ctx, order.PermanentFolder); err != nil {
		s.logger.Warn("failed to delete order folder",
			zap.String("folder", order.PermanentFolder), zap.Error(err))
	}
}
