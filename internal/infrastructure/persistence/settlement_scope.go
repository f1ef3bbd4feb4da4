package persistence

import (
	"context"

	appsettlement "github.com/tropa/backend/internal/application/settlement"
	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/wallet"
	"gorm.io/gorm"
)

// GormTransactionScope implements the settlement TransactionScope using GORM
// transactions. Every repository handed to the settlement closure shares the
// same *gorm.DB transaction, so stock, order, audit and ledger writes commit
// or roll back as one unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsettlement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all settlement
// repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Users returns the user repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Products returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// ProductLogs returns the product audit log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductLogs() catalog.ProductLogRepository {
	return NewGormProductLogRepository(r.tx)
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// WalletTransactions returns the wallet ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) WalletTransactions() wallet.TransactionRepository {
	return NewGormWalletTransactionRepository(r.tx)
}

var _ appsettlement.TransactionScope = (*GormTransactionScope)(nil)
var _ appsettlement.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
