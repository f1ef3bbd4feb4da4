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

// GormProductLogRepository implements the append-only product audit log
// using GORM. Rows are only ever inserted.
type GormProductLogRepository struct {
	db *gorm.DB
}

// NewGormProductLogRepository creates a new GormProductLogRepository
func NewGormProductLogRepository(db *gorm.DB) *GormProductLogRepository {
	return &GormProductLogRepository{db: db}
}

// Create appends a new log entry
func (r *GormProductLogRepository) Create(ctx context.Context, log *catalog.ProductLog) error {
	model := models.ProductLogModelFromDomain(log)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a log entry by ID
func (r *GormProductLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductLog, error) {
	var model models.ProductLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProductID lists log entries for a product in chronological order
func (r *GormProductLogRepository) FindByProductID(ctx context.Context, productID uuid.UUID, filter catalog.ProductLogFilter) ([]*catalog.ProductLog, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductLogModel{}).
		Where("product_id = ?", productID)
	return r.list(query, filter)
}

// List lists all log entries in chronological order
func (r *GormProductLogRepository) List(ctx context.Context, filter catalog.ProductLogFilter) ([]*catalog.ProductLog, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.ProductLogModel{}), filter)
}

func (r *GormProductLogRepository) list(query *gorm.DB, filter catalog.ProductLogFilter) ([]*catalog.ProductLog, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductLogModel
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order("logged_at ASC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]*catalog.ProductLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, total, nil
}

var _ catalog.ProductLogRepository = (*GormProductLogRepository)(nil)
