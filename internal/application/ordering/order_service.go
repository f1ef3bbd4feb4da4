package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service exposes order queries and the soft-cancel operation. Order creation
// happens exclusively through the settlement flow; reverting a settled sale is
// also a settlement operation because it touches stock and the ledger.
type Service struct {
	orders ordering.OrderRepository
	logger *zap.Logger
}

// NewService creates a new order service.
func NewService(orders ordering.OrderRepository, logger *zap.Logger) *Service {
	return &Service{orders: orders, logger: logger}
}

// Get returns one order with its details. Scouts may only read their own
// orders; admins may read any.
func (s *Service) Get(ctx context.Context, requesterID uuid.UUID, requesterRole identity.Role, id uuid.UUID) (*ordering.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID && !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}
	return order, nil
}

// List lists orders, most recent first. Scouts are restricted to their own
// orders regardless of the filter.
func (s *Service) List(ctx context.Context, requesterID uuid.UUID, requesterRole identity.Role, filter ordering.OrderFilter) ([]*ordering.Order, int64, error) {
	if !requesterRole.CanManageTroopStore() {
		filter.UserID = &requesterID
	}
	return s.orders.List(ctx, filter)
}

// Cancel soft-cancels an order: the row stays for the audit trail but the
// order is excluded from active views. Cancelling does not touch stock or the
// wallet ledger; a settled sale that must be undone goes through the revert
// flow instead.
func (s *Service) Cancel(ctx context.Context, requesterRole identity.Role, id uuid.UUID) (*ordering.Order, error) {
	if !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", id.String()),
		zap.String("reference", order.Reference),
	)
	return order, nil
}
