package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ImageStore stores product images and returns a public URL for each upload.
type ImageStore interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// CreateProductRequest carries the fields for a new product.
type CreateProductRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Type        catalog.ProductType
}

// UpdateProductRequest carries the mutable fields of a product. Nil fields
// are left unchanged.
type UpdateProductRequest struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// Service manages the product catalog: CRUD, restocking and the audit log.
// Stock deductions for sales happen in the settlement flow, not here.
type Service struct {
	products catalog.ProductRepository
	logs     catalog.ProductLogRepository
	images   ImageStore
	logger   *zap.Logger
}

// NewService creates a new catalog service. images may be nil when image
// upload is disabled.
func NewService(
	products catalog.ProductRepository,
	logs catalog.ProductLogRepository,
	images ImageStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		products: products,
		logs:     logs,
		images:   images,
		logger:   logger,
	}
}

// Create adds a new product to the catalog.
func (s *Service) Create(ctx context.Context, requesterRole identity.Role, req CreateProductRequest) (*catalog.Product, error) {
	if !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}

	product, err := catalog.NewProduct(req.Name, req.Description, req.Price, req.Stock, req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	return product, nil
}

// Get returns one product by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

// List lists products with filtering.
func (s *Service) List(ctx context.Context, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	return s.products.List(ctx, filter)
}

// Update changes a product's basic information and price.
func (s *Service) Update(ctx context.Context, requesterRole identity.Role, id uuid.UUID, req UpdateProductRequest) (*catalog.Product, error) {
	if !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := product.Name
	if req.Name != nil {
		name = *req.Name
	}
	description := product.Description
	if req.Description != nil {
		description = *req.Description
	}
	if err := product.Update(name, description); err != nil {
		return nil, err
	}
	if req.Price != nil {
		if err := product.UpdatePrice(*req.Price); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Restock adds stock to a product and appends an audit entry.
func (s *Service) Restock(ctx context.Context, requesterID uuid.UUID, requesterRole identity.Role, id uuid.UUID, quantity int, note string) (*catalog.Product, error) {
	if !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be at least 1")
	}

	after, err := s.products.AddStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	before := after - quantity

	description := note
	if description == "" {
		description = fmt.Sprintf("Restocked %d units", quantity)
	}
	entry, err := catalog.NewProductLog(id, requesterID, catalog.ProductActionRestock, description, before, after)
	if err != nil {
		return nil, err
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("product restocked",
		zap.String("product_id", id.String()),
		zap.Int("quantity", quantity),
		zap.Int("stock", after),
	)
	return s.products.FindByID(ctx, id)
}

// Deactivate soft-deletes a product: stock goes to zero, the product is
// hidden from sale paths and an audit entry records the removal. Historical
// orders keep their reference.
func (s *Service) Deactivate(ctx context.Context, requesterID uuid.UUID, requesterRole identity.Role, id uuid.UUID) error {
	if !requesterRole.CanManageTroopStore() {
		return shared.ErrForbidden
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}

	before := product.Stock
	if err := product.Deactivate(); err != nil {
		return err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	entry, err := catalog.NewProductLog(id, requesterID, catalog.ProductActionDeactivate, "Product deactivated", before, 0)
	if err != nil {
		return err
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return err
	}

	s.logger.Info("product deactivated", zap.String("product_id", id.String()))
	return nil
}

// SetImage uploads a product image and stores the returned URL.
func (s *Service) SetImage(ctx context.Context, requesterRole identity.Role, id uuid.UUID, contentType string, body io.Reader) (*catalog.Product, error) {
	if !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}
	if s.images == nil {
		return nil, shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := "products/" + id.String()
	url, err := s.images.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}

	product.SetImageURL(url)
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Logs lists the audit log of one product in chronological order.
func (s *Service) Logs(ctx context.Context, productID uuid.UUID, filter catalog.ProductLogFilter) ([]*catalog.ProductLog, int64, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, 0, err
	}
	return s.logs.FindByProductID(ctx, productID, filter)
}

// Log returns a single audit log entry by ID.
func (s *Service) Log(ctx context.Context, id uuid.UUID) (*catalog.ProductLog, error) {
	return s.logs.FindByID(ctx, id)
}

// AllLogs lists the full audit log across products.
func (s *Service) AllLogs(ctx context.Context, requesterRole identity.Role, filter catalog.ProductLogFilter) ([]*catalog.ProductLog, int64, error) {
	if !requesterRole.CanManageTroopStore() {
		return nil, 0, shared.ErrForbidden
	}
	return s.logs.List(ctx, filter)
}
