package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/wallet"
)

// OrderLine is one requested line item of a sale
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// SellRequest represents a request to settle a sale
type SellRequest struct {
	// RequesterID is the user performing the operation
	RequesterID   uuid.UUID
	RequesterRole identity.Role
	// UserID is the wallet owner being charged; defaults to the requester
	UserID uuid.UUID
	Lines  []OrderLine
	Note   string
	// IdempotencyKey is an optional client-generated key; resubmitting the
	// same key is rejected without side effects
	IdempotencyKey string
}

// StockChange reports the audited stock movement of one line item
type StockChange struct {
	ProductID uuid.UUID `json:"product_id"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
}

// SellResult is the aggregate outcome of a committed sale
type SellResult struct {
	Order        *ordering.Order     `json:"order"`
	Transaction  *wallet.Transaction `json:"transaction"`
	StockChanges []StockChange       `json:"stock_changes"`
	Balance      decimal.Decimal     `json:"balance"`
}

// TopUpRequest represents a request to credit a user's wallet
type TopUpRequest struct {
	RequesterID   uuid.UUID
	RequesterRole identity.Role
	// UserID is the wallet owner being credited; defaults to the requester
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// TopUpResult is the outcome of a committed top-up
type TopUpResult struct {
	Order       *ordering.Order     `json:"order"`
	Transaction *wallet.Transaction `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
}

// RevertRequest represents a request to revert a settled sale
type RevertRequest struct {
	RequesterID   uuid.UUID
	RequesterRole identity.Role
	OrderID       uuid.UUID
	Reason        string
}

// RevertResult is the outcome of a committed sale reversal
type RevertResult struct {
	Order        *ordering.Order     `json:"order"`
	Transaction  *wallet.Transaction `json:"transaction"`
	StockChanges []StockChange       `json:"stock_changes"`
	Balance      decimal.Decimal     `json:"balance"`
}
