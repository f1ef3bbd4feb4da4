package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/domain/wallet"
	"go.uber.org/zap"
)

// BalanceResult pairs the authoritative ledger fold with the cached
// projection so callers can surface drift.
type BalanceResult struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
	// Cached is the projection stored on the user row. It is refreshed in the
	// same transaction as every ledger append and should always equal Balance.
	Cached decimal.Decimal `json:"cached"`
}

// Service exposes read access to the wallet ledger. All writes go through the
// settlement service; this service never mutates the ledger.
type Service struct {
	transactions wallet.TransactionRepository
	users        identity.UserRepository
	logger       *zap.Logger
}

// NewService creates a new wallet query service.
func NewService(transactions wallet.TransactionRepository, users identity.UserRepository, logger *zap.Logger) *Service {
	return &Service{
		transactions: transactions,
		users:        users,
		logger:       logger,
	}
}

// GetBalance returns a user's balance. The returned value is the fold over
// the ledger, not the cached projection.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.transactions.SumByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !balance.Equal(user.AccountBalance) {
		s.logger.Warn("cached balance diverged from ledger fold",
			zap.String("user_id", userID.String()),
			zap.String("cached", user.AccountBalance.String()),
			zap.String("ledger", balance.String()),
		)
	}

	return &BalanceResult{
		UserID:  userID,
		Balance: balance,
		Cached:  user.AccountBalance,
	}, nil
}

// ListTransactions lists a user's ledger entries, most recent first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, filter wallet.TransactionFilter) ([]*wallet.Transaction, int64, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.transactions.FindByUserID(ctx, userID, filter)
}

// GetTransaction returns one ledger entry. Scouts may only read their own
// entries; admins may read any.
func (s *Service) GetTransaction(ctx context.Context, requesterID uuid.UUID, requesterRole identity.Role, id uuid.UUID) (*wallet.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != requesterID && !requesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}
	return tx, nil
}
