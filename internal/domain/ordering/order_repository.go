package ordering

import (
	"context"

	"github.com/google/uuid"
)

// OrderFilter contains filter options for listing orders
type OrderFilter struct {
	UserID   *uuid.UUID
	Status   *OrderStatus
	Page     int
	PageSize int
}

// OrderRepository defines the interface for order persistence.
// An order is always persisted together with its details.
type OrderRepository interface {
	// Create creates a new order with its details as one unit
	Create(ctx context.Context, order *Order) error

	// FindByID finds an order (with details) by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// List lists orders with filtering, most recent first
	List(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)

	// Save persists order header changes (status transitions) with an
	// optimistic version check. Details are immutable after creation.
	Save(ctx context.Context, order *Order) error
}
