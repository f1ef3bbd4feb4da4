package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/domain/wallet"
)

// WalletTransactionModel is the persistence model for the append-only wallet
// ledger. Rows are inserted and read, never updated or deleted.
type WalletTransactionModel struct {
	BaseModel
	UserID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceBefore       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceAfter        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Action              string          `gorm:"type:varchar(20);not null;index"`
	Description         string          `gorm:"type:text"`
	OrderID             *uuid.UUID      `gorm:"type:uuid;index"`
	ParentTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	TransactionDate     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *WalletTransactionModel) ToDomain() *wallet.Transaction {
	return &wallet.Transaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		UserID:              m.UserID,
		Amount:              m.Amount,
		BalanceBefore:       m.BalanceBefore,
		BalanceAfter:        m.BalanceAfter,
		Action:              m.Action,
		Description:         m.Description,
		OrderID:             m.OrderID,
		ParentTransactionID: m.ParentTransactionID,
		TransactionDate:     m.TransactionDate,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *WalletTransactionModel) FromDomain(t *wallet.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.UserID = t.UserID
	m.Amount = t.Amount
	m.BalanceBefore = t.BalanceBefore
	m.BalanceAfter = t.BalanceAfter
	m.Action = t.Action
	m.Description = t.Description
	m.OrderID = t.OrderID
	m.ParentTransactionID = t.ParentTransactionID
	m.TransactionDate = t.TransactionDate
}

// WalletTransactionModelFromDomain creates a new persistence model from a domain Transaction entity.
func WalletTransactionModelFromDomain(t *wallet.Transaction) *WalletTransactionModel {
	m := &WalletTransactionModel{}
	m.FromDomain(t)
	return m
}
