package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter contains filter options for listing wallet transactions
type TransactionFilter struct {
	Action   string
	Page     int
	PageSize int
}

// TransactionRepository defines the interface for the append-only wallet
// ledger. Entries are never updated or deleted.
type TransactionRepository interface {
	// Create appends a new ledger entry
	Create(ctx context.Context, transaction *Transaction) error

	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByUserID lists a user's ledger entries, most recent first
	FindByUserID(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]*Transaction, int64, error)

	// FindByParentID lists entries that reverse the given entry
	FindByParentID(ctx context.Context, parentID uuid.UUID) ([]*Transaction, error)

	// FindByOrderID lists entries linked to the given order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Transaction, error)

	// SumByUserID folds the signed amounts of all entries for a user.
	// This fold is the authoritative balance.
	SumByUserID(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}
