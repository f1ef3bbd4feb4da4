package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/domain/shared"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	Name        string          `gorm:"type:varchar(200);not null;index"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"`
	Type        string          `gorm:"type:varchar(20);not null;index"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active';index"`
	ImageURL    string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		Stock:             m.Stock,
		Type:              catalog.ProductType(m.Type),
		Status:            catalog.ProductStatus(m.Status),
		ImageURL:          m.ImageURL,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Stock = p.Stock
	m.Type = string(p.Type)
	m.Status = string(p.Status)
	m.ImageURL = p.ImageURL
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductLogModel is the persistence model for the append-only product audit log.
type ProductLogModel struct {
	BaseModel
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Action         string    `gorm:"type:varchar(20);not null"`
	Description    string    `gorm:"type:text"`
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	LoggedAt       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductLogModel) TableName() string {
	return "product_logs"
}

// ToDomain converts the persistence model to a domain ProductLog entity.
func (m *ProductLogModel) ToDomain() *catalog.ProductLog {
	return &catalog.ProductLog{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ProductID:      m.ProductID,
		UserID:         m.UserID,
		Action:         m.Action,
		Description:    m.Description,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		LoggedAt:       m.LoggedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductLog entity.
func (m *ProductLogModel) FromDomain(l *catalog.ProductLog) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.ProductID = l.ProductID
	m.UserID = l.UserID
	m.Action = l.Action
	m.Description = l.Description
	m.QuantityBefore = l.QuantityBefore
	m.QuantityAfter = l.QuantityAfter
	m.LoggedAt = l.LoggedAt
}

// ProductLogModelFromDomain creates a new persistence model from a domain ProductLog entity.
func ProductLogModelFromDomain(l *catalog.ProductLog) *ProductLogModel {
	m := &ProductLogModel{}
	m.FromDomain(l)
	return m
}
