package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the user with an optimistic version check
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)

	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Select("*").
		Omit("id", "created_at", "account_balance").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ApplyBalanceDelta atomically adds delta to the user's cached balance.
// The single conditional UPDATE both takes the row lock that serializes
// concurrent settlements for the same user and enforces the balance floor:
// a debit that would land below minBalance matches no row and fails with
// shared.ErrInsufficientBalance. Credits are never blocked by the floor.
func (r *GormUserRepository) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta, minBalance decimal.Decimal) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ? AND status = ?", id, "active")
	if delta.IsNegative() {
		query = query.Where("account_balance + ? >= ?", delta, minBalance)
	}

	result := query.Update("account_balance", gorm.Expr("account_balance + ?", delta))
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing user from a floor violation.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.UserModel{}).
			Where("id = ? AND status = ?", id, "active").
			Count(&count).Error; err != nil {
			return decimal.Zero, err
		}
		if count == 0 {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, shared.ErrInsufficientBalance
	}

	var balance decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", id).
		Pluck("account_balance", &balance).Error; err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	return r.db.WithContext(ctx).Create(model).Error
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
