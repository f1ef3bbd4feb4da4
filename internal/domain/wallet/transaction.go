package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/shared"
)

// Action labels recorded on wallet transactions. Stored as text for
// compatibility with the historical data.
const (
	ActionTopUp    = "Recarga"
	ActionSale     = "Venta"
	ActionDiscount = "Descuento"
	ActionReversal = "Reverso"
)

// Transaction is an immutable, signed entry in a user's wallet ledger.
// Positive amounts credit the wallet (top-up), negative amounts debit it
// (sale, discount). Once written a transaction is never modified; a reversal
// is a new inverse entry referencing the original through ParentTransactionID.
type Transaction struct {
	shared.BaseEntity
	UserID        uuid.UUID
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Action        string
	Description   string
	// OrderID links the entry to the order that originated it. The link is a
	// weak reference for the audit trail: the entry outlives the order if the
	// order is later soft-cancelled.
	OrderID             *uuid.UUID
	ParentTransactionID *uuid.UUID
	TransactionDate     time.Time
}

// NewTransaction creates a new wallet transaction. The balance snapshot
// invariant (after = before + amount) is enforced here.
func NewTransaction(userID uuid.UUID, amount, balanceBefore decimal.Decimal, action, description string) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot be zero")
	}
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Action cannot be empty")
	}

	return &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		UserID:          userID,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceBefore.Add(amount),
		Action:          action,
		Description:     description,
		TransactionDate: time.Now(),
	}, nil
}

// NewTopUpTransaction creates a credit entry. Top-ups require a strictly
// positive amount.
func NewTopUpTransaction(userID uuid.UUID, amount, balanceBefore decimal.Decimal, description string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Top-up amount must be positive")
	}
	return NewTransaction(userID, amount, balanceBefore, ActionTopUp, description)
}

// NewSaleTransaction creates a debit entry for an order total. The total is
// given as a positive amount and recorded negative.
func NewSaleTransaction(userID uuid.UUID, total, balanceBefore decimal.Decimal, description string) (*Transaction, error) {
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sale total must be positive")
	}
	return NewTransaction(userID, total.Neg(), balanceBefore, ActionSale, description)
}

// NewReversalTransaction creates the inverse entry for a previous
// transaction. History is never edited; the reversal references the original.
func NewReversalTransaction(original *Transaction, balanceBefore decimal.Decimal, description string) (*Transaction, error) {
	tx, err := NewTransaction(original.UserID, original.Amount.Neg(), balanceBefore, ActionReversal, description)
	if err != nil {
		return nil, err
	}
	parentID := original.ID
	tx.ParentTransactionID = &parentID
	tx.OrderID = original.OrderID
	return tx, nil
}

// WithOrderID links the transaction to its originating order
func (t *Transaction) WithOrderID(orderID uuid.UUID) *Transaction {
	t.OrderID = &orderID
	return t
}

// IsCredit returns true if this entry increased the balance
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// IsDebit returns true if this entry decreased the balance
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsReversal returns true if this entry reverses another entry
func (t *Transaction) IsReversal() bool {
	return t.ParentTransactionID != nil
}
