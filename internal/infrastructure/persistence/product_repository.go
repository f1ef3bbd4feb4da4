package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists products with filtering, newest first
func (r *GormProductRepository) List(ctx context.Context, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})

	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.OnlyActive {
		query = query.Where("status = ?", string(catalog.ProductStatusActive))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize).Order("created_at DESC")

	var rows []models.ProductModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	products := make([]*catalog.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products, total, nil
}

// Save persists the product with an optimistic version check
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)

	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeductStock atomically decrements stock by quantity. The conditional
// UPDATE matches only when the product is active and carries enough stock,
// so two concurrent sales of the last units cannot both succeed.
func (r *GormProductRepository) DeductStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND status = ? AND stock >= ?", id, string(catalog.ProductStatusActive), quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		var model models.ProductModel
		err := r.db.WithContext(ctx).
			Select("name").
			Where("id = ? AND status = ?", id, string(catalog.ProductStatusActive)).
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		if err != nil {
			return 0, err
		}
		return 0, shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for product "+model.Name)
	}

	return r.currentStock(ctx, id)
}

// AddStock atomically increments stock by quantity (restock and sale
// reversal path).
func (r *GormProductRepository) AddStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}

	return r.currentStock(ctx, id)
}

func (r *GormProductRepository) currentStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Pluck("stock", &stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
