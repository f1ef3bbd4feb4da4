package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/tropa/backend/internal/domain/shared"
)

// Stock-change action labels recorded in the product log
const (
	ProductActionSale       = "Venta"
	ProductActionRestock    = "Recarga"
	ProductActionReversal   = "Reverso"
	ProductActionDeactivate = "Baja"
)

// ProductLog is an append-only audit record of a stock-affecting operation.
// Entries are immutable once written; insertion order is chronological order
// and is what history views display.
type ProductLog struct {
	shared.BaseEntity
	ProductID      uuid.UUID
	UserID         uuid.UUID
	Action         string
	Description    string
	QuantityBefore int
	QuantityAfter  int
	LoggedAt       time.Time
}

// NewProductLog creates a new product log entry
func NewProductLog(productID, userID uuid.UUID, action, description string, quantityBefore, quantityAfter int) (*ProductLog, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Action cannot be empty")
	}

	return &ProductLog{
		BaseEntity:     shared.NewBaseEntity(),
		ProductID:      productID,
		UserID:         userID,
		Action:         action,
		Description:    description,
		QuantityBefore: quantityBefore,
		QuantityAfter:  quantityAfter,
		LoggedAt:       time.Now(),
	}, nil
}

// QuantityChange returns the net stock change recorded by this entry
func (l *ProductLog) QuantityChange() int {
	return l.QuantityAfter - l.QuantityBefore
}
