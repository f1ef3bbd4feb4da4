package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductFilter contains filter options for listing products
type ProductFilter struct {
	Type       *ProductType
	Status     *ProductStatus
	OnlyActive bool
	Page       int
	PageSize   int
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, product *Product) error

	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List lists products with filtering
	List(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)

	// Save persists the product with an optimistic version check
	Save(ctx context.Context, product *Product) error

	// DeductStock atomically decrements stock by quantity, failing with an
	// INSUFFICIENT_STOCK error naming the product when stock < quantity and
	// shared.ErrNotFound when the product is missing or inactive. The
	// conditional update takes the row lock that serializes concurrent sales
	// of the same product. Returns the stock after the deduction.
	DeductStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)

	// AddStock atomically increments stock by quantity (restock and sale
	// reversal path). Returns the stock after the addition.
	AddStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
}
