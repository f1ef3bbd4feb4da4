package settlement

import (
	"context"

	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/wallet"
)

// TransactionScope provides transactional access to the repositories a
// settlement touches. When a function is executed within a transaction scope,
// all repository operations are part of the same database transaction and are
// committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all settlement repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// The two hot shared fields (Product.Stock and the user's cached balance) are
// mutated only through these transaction-scoped repositories, never outside
// a settlement.
type TransactionalRepositories interface {
	// Users returns the user repository scoped to the current transaction
	Users() identity.UserRepository
	// Products returns the product repository scoped to the current transaction
	Products() catalog.ProductRepository
	// ProductLogs returns the product audit log repository scoped to the current transaction
	ProductLogs() catalog.ProductLogRepository
	// Orders returns the order repository scoped to the current transaction
	Orders() ordering.OrderRepository
	// WalletTransactions returns the wallet ledger repository scoped to the current transaction
	WalletTransactions() wallet.TransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	users       identity.UserRepository
	products    catalog.ProductRepository
	productLogs catalog.ProductLogRepository
	orders      ordering.OrderRepository
	walletTxs   wallet.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	users identity.UserRepository,
	products catalog.ProductRepository,
	productLogs catalog.ProductLogRepository,
	orders ordering.OrderRepository,
	walletTxs wallet.TransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		users:       users,
		products:    products,
		productLogs: productLogs,
		orders:      orders,
		walletTxs:   walletTxs,
	}
}

// Execute runs the function without a real transaction (for testing).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Users returns the user repository.
func (s *NoOpTransactionScope) Users() identity.UserRepository { return s.users }

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.products }

// ProductLogs returns the product audit log repository.
func (s *NoOpTransactionScope) ProductLogs() catalog.ProductLogRepository { return s.productLogs }

// Orders returns the order repository.
func (s *NoOpTransactionScope) Orders() ordering.OrderRepository { return s.orders }

// WalletTransactions returns the wallet ledger repository.
func (s *NoOpTransactionScope) WalletTransactions() wallet.TransactionRepository { return s.walletTxs }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
