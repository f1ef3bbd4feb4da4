package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReverted  OrderStatus = "reverted"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusReverted:
		return true
	}
	return false
}

// OrderDetail is a line item owned by an Order. The unit price is a snapshot
// of the product price at order time and is immune to later price changes.
type OrderDetail struct {
	shared.BaseEntity
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity x unit price
func (d *OrderDetail) Subtotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// Order represents a troop store order. It is the aggregate root owning its
// OrderDetails: order and details are created together, atomically, and
// details never exist without a parent order. Orders are soft-cancelled only.
type Order struct {
	shared.BaseAggregateRoot
	Reference string
	Note      string
	OrderDate time.Time
	// TotalAmount always equals the sum of line subtotals; it is recomputed
	// from the lines, never trusted from the caller.
	TotalAmount decimal.Decimal
	Status      OrderStatus
	UserID      uuid.UUID
	Details     []OrderDetail
}

// NewOrder creates a new empty order for a user
func NewOrder(userID uuid.UUID, note string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}

	now := time.Now()
	base := shared.NewBaseAggregateRoot()
	return &Order{
		BaseAggregateRoot: base,
		Reference:         generateReference(base.ID, now),
		Note:              note,
		OrderDate:         now,
		TotalAmount:       decimal.Zero,
		Status:            OrderStatusPending,
		UserID:            userID,
	}, nil
}

// AddLine appends a line item with the given product price snapshot and
// recomputes the order total
func (o *Order) AddLine(productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.ErrInvalidState
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	detail := OrderDetail{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    o.ID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
	}
	o.Details = append(o.Details, detail)
	o.recomputeTotal()

	return nil
}

// Confirm transitions the order to confirmed
func (o *Order) Confirm() error {
	if o.Status != OrderStatusPending {
		return shared.ErrInvalidState
	}

	o.Status = OrderStatusConfirmed
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// Cancel soft-cancels the order. Reverted orders stay reverted.
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError("ALREADY_CANCELLED", "Order is already cancelled")
	}
	if o.Status == OrderStatusReverted {
		return shared.ErrInvalidState
	}

	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// MarkReverted marks a confirmed sale order as reverted after its stock and
// ledger effects were undone
func (o *Order) MarkReverted() error {
	if o.Status != OrderStatusConfirmed {
		return shared.ErrInvalidState
	}

	o.Status = OrderStatusReverted
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// IsTopUp returns true for the zero-line orders created for wallet top-up
// traceability
func (o *Order) IsTopUp() bool {
	return len(o.Details) == 0
}

// IsReverted returns true if the order was reverted
func (o *Order) IsReverted() bool {
	return o.Status == OrderStatusReverted
}

func (o *Order) recomputeTotal() {
	total := decimal.Zero
	for i := range o.Details {
		total = total.Add(o.Details[i].Subtotal())
	}
	o.TotalAmount = total
}

// generateReference builds the human-readable order reference, e.g.
// TRP-20260830-1A2B3C4D5E6F. The 12-hex-char suffix keeps same-day
// collisions against the unique reference index out of practical reach.
func generateReference(id uuid.UUID, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:12]
	return fmt.Sprintf("TRP-%s-%s", at.Format("20060102"), suffix)
}
