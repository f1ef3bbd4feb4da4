package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/domain/wallet"
	"github.com/tropa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWalletTransactionRepository implements the append-only wallet ledger
// using GORM. Entries are only ever inserted.
type GormWalletTransactionRepository struct {
	db *gorm.DB
}

// NewGormWalletTransactionRepository creates a new GormWalletTransactionRepository
func NewGormWalletTransactionRepository(db *gorm.DB) *GormWalletTransactionRepository {
	return &GormWalletTransactionRepository{db: db}
}

// Create appends a new ledger entry
func (r *GormWalletTransactionRepository) Create(ctx context.Context, transaction *wallet.Transaction) error {
	model := models.WalletTransactionModelFromDomain(transaction)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a ledger entry by ID
func (r *GormWalletTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	var model models.WalletTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserID lists a user's ledger entries, most recent first
func (r *GormWalletTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, filter wallet.TransactionFilter) ([]*wallet.Transaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Where("user_id = ?", userID)
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WalletTransactionModel
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order("transaction_date DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return toDomainTransactions(rows), total, nil
}

// FindByParentID lists entries that reverse the given entry
func (r *GormWalletTransactionRepository) FindByParentID(ctx context.Context, parentID uuid.UUID) ([]*wallet.Transaction, error) {
	var rows []models.WalletTransactionModel
	if err := r.db.WithContext(ctx).
		Where("parent_transaction_id = ?", parentID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(rows), nil
}

// FindByOrderID lists entries linked to the given order
func (r *GormWalletTransactionRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*wallet.Transaction, error) {
	var rows []models.WalletTransactionModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("transaction_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(rows), nil
}

// SumByUserID folds the signed amounts of all entries for a user.
// This fold is the authoritative balance.
func (r *GormWalletTransactionRepository) SumByUserID(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	if err := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Where("user_id = ?", userID).
		Select("SUM(amount)").
		Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	// SUM over zero rows yields NULL
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func toDomainTransactions(rows []models.WalletTransactionModel) []*wallet.Transaction {
	out := make([]*wallet.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ wallet.TransactionRepository = (*GormWalletTransactionRepository)(nil)
