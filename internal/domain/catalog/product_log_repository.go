package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductLogFilter contains filter options for listing product log entries
type ProductLogFilter struct {
	Page     int
	PageSize int
}

// ProductLogRepository defines the interface for the append-only product
// audit log. Entries are never updated or deleted.
type ProductLogRepository interface {
	// Create appends a new log entry
	Create(ctx context.Context, log *ProductLog) error

	// FindByID finds a log entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductLog, error)

	// FindByProductID lists log entries for a product in chronological order
	FindByProductID(ctx context.Context, productID uuid.UUID, filter ProductLogFilter) ([]*ProductLog, int64, error)

	// List lists all log entries in chronological order
	List(ctx context.Context, filter ProductLogFilter) ([]*ProductLog, int64, error)
}
