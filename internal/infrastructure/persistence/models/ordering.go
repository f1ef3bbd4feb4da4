package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/shared"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	Reference   string            `gorm:"type:varchar(30);not null;uniqueIndex"`
	Note        string            `gorm:"type:text"`
	OrderDate   time.Time         `gorm:"not null;index"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(18,2);not null;check:total_amount >= 0"`
	Status      string            `gorm:"type:varchar(20);not null;index"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Details     []OrderDetailModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *ordering.Order {
	order := &ordering.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Reference:         m.Reference,
		Note:              m.Note,
		OrderDate:         m.OrderDate,
		TotalAmount:       m.TotalAmount,
		Status:            ordering.OrderStatus(m.Status),
		UserID:            m.UserID,
		Details:           make([]ordering.OrderDetail, len(m.Details)),
	}
	for i, d := range m.Details {
		order.Details[i] = *d.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *ordering.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Reference = o.Reference
	m.Note = o.Note
	m.OrderDate = o.OrderDate
	m.TotalAmount = o.TotalAmount
	m.Status = string(o.Status)
	m.UserID = o.UserID
	m.Details = make([]OrderDetailModel, len(o.Details))
	for i := range o.Details {
		m.Details[i] = *OrderDetailModelFromDomain(&o.Details[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *ordering.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderDetailModel is the persistence model for the OrderDetail entity.
type OrderDetailModel struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null;check:quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderDetailModel) TableName() string {
	return "order_details"
}

// ToDomain converts the persistence model to a domain OrderDetail entity.
func (m *OrderDetailModel) ToDomain() *ordering.OrderDetail {
	return &ordering.OrderDetail{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
}

// FromDomain populates the persistence model from a domain OrderDetail entity.
func (m *OrderDetailModel) FromDomain(d *ordering.OrderDetail) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.OrderID = d.OrderID
	m.ProductID = d.ProductID
	m.Quantity = d.Quantity
	m.UnitPrice = d.UnitPrice
}

// OrderDetailModelFromDomain creates a new persistence model from a domain OrderDetail entity.
func OrderDetailModelFromDomain(d *ordering.OrderDetail) *OrderDetailModel {
	m := &OrderDetailModel{}
	m.FromDomain(d)
	return m
}
