package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// ProductType represents the category of a product in the troop store
type ProductType string

const (
	ProductTypeUniform    ProductType = "uniform"
	ProductTypeInsignia   ProductType = "insignia"
	ProductTypeCamping    ProductType = "camping"
	ProductTypeHandicraft ProductType = "handicraft"
	ProductTypeOther      ProductType = "other"
)

// String returns the string representation of ProductType
func (t ProductType) String() string {
	return string(t)
}

// IsValid returns true if the product type is a known category
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeUniform, ProductTypeInsignia, ProductTypeCamping, ProductTypeHandicraft, ProductTypeOther:
		return true
	}
	return false
}

// Product represents a product in the troop store.
// It is the aggregate root for product-related operations.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Type        ProductType
	Status      ProductStatus
	ImageURL    string
}

// NewProduct creates a new product
func NewProduct(name, description string, price decimal.Decimal, stock int, productType ProductType) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	if !productType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown product type")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		Price:             price,
		Stock:             stock,
		Type:              productType,
		Status:            ProductStatusActive,
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// UpdatePrice updates the selling price
func (p *Product) UpdatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	p.Price = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetImageURL sets the product image reference
func (p *Product) SetImageURL(url string) {
	p.ImageURL = url
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// CanDeduct checks whether quantity units can be sold from current stock.
// The authoritative check happens in the conditional stock update inside the
// settlement transaction; this is the pre-validation used to fail fast.
func (p *Product) CanDeduct(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if !p.IsActive() {
		return shared.ErrNotFound
	}
	if p.Stock < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for product "+p.Name)
	}
	return nil
}

// Restock adds quantity units to stock
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be at least 1")
	}

	p.Stock += quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Deactivate soft-deletes the product: stock is forced to zero and the
// product is hidden from sale paths. Products are never physically removed
// so historical orders keep a valid reference.
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}

	p.Stock = 0
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
