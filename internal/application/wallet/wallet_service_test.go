package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/domain/wallet"
	"go.uber.org/zap"
)

type stubUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, _ string) (*identity.User, error) {
	return nil, shared.ErrNotFound
}

func (r *stubUserRepo) Save(_ context.Context, u *identity.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) ApplyBalanceDelta(_ context.Context, id uuid.UUID, delta, _ decimal.Decimal) (decimal.Decimal, error) {
	u, ok := r.users[id]
	if !ok {
		return decimal.Zero, shared.ErrNotFound
	}
	u.AccountBalance = u.AccountBalance.Add(delta)
	return u.AccountBalance, nil
}

type stubLedgerRepo struct {
	entries []*wallet.Transaction
}

func (r *stubLedgerRepo) Create(_ context.Context, tx *wallet.Transaction) error {
	r.entries = append(r.entries, tx)
	return nil
}

func (r *stubLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubLedgerRepo) FindByUserID(_ context.Context, userID uuid.UUID, _ wallet.TransactionFilter) ([]*wallet.Transaction, int64, error) {
	var out []*wallet.Transaction
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubLedgerRepo) FindByParentID(_ context.Context, _ uuid.UUID) ([]*wallet.Transaction, error) {
	return nil, nil
}

func (r *stubLedgerRepo) FindByOrderID(_ context.Context, _ uuid.UUID) ([]*wallet.Transaction, error) {
	return nil, nil
}

func (r *stubLedgerRepo) SumByUserID(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.entries {
		if e.UserID == userID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func newWalletFixture(t *testing.T) (*Service, *identity.User, *stubLedgerRepo) {
	t.Helper()
	scout, err := identity.NewUser("lobato", "Lobato Scout", "lobato@tropa.test", identity.RoleScout)
	require.NoError(t, err)

	users := &stubUserRepo{users: map[uuid.UUID]*identity.User{scout.ID: scout}}
	ledger := &stubLedgerRepo{}
	return NewService(ledger, users, zap.NewNop()), scout, ledger
}

func topUpEntry(t *testing.T, userID uuid.UUID, amount, before int64) *wallet.Transaction {
	t.Helper()
	tx, err := wallet.NewTopUpTransaction(userID, decimal.NewFromInt(amount), decimal.NewFromInt(before), "")
	require.NoError(t, err)
	return tx
}

func TestServiceGetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the ledger fold", func(t *testing.T) {
		svc, scout, ledger := newWalletFixture(t)
		require.NoError(t, ledger.Create(ctx, topUpEntry(t, scout.ID, 50, 0)))
		sale, err := wallet.NewSaleTransaction(scout.ID, decimal.NewFromInt(15), decimal.NewFromInt(50), "")
		require.NoError(t, err)
		require.NoError(t, ledger.Create(ctx, sale))
		scout.AccountBalance = decimal.NewFromInt(35)

		result, err := svc.GetBalance(ctx, scout.ID)
		require.NoError(t, err)
		assert.True(t, result.Balance.Equal(decimal.NewFromInt(35)))
		assert.True(t, result.Cached.Equal(result.Balance))
	})

	t.Run("empty ledger folds to zero", func(t *testing.T) {
		svc, scout, _ := newWalletFixture(t)
		result, err := svc.GetBalance(ctx, scout.ID)
		require.NoError(t, err)
		assert.True(t, result.Balance.IsZero())
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newWalletFixture(t)
		_, err := svc.GetBalance(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestServiceListTransactions(t *testing.T) {
	ctx := context.Background()
	svc, scout, ledger := newWalletFixture(t)
	require.NoError(t, ledger.Create(ctx, topUpEntry(t, scout.ID, 10, 0)))
	require.NoError(t, ledger.Create(ctx, topUpEntry(t, scout.ID, 5, 10)))

	entries, total, err := svc.ListTransactions(ctx, scout.ID, wallet.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), total)

	_, _, err = svc.ListTransactions(ctx, uuid.New(), wallet.TransactionFilter{})
	assert.Error(t, err)
}

func TestServiceGetTransaction(t *testing.T) {
	ctx := context.Background()
	svc, scout, ledger := newWalletFixture(t)
	entry := topUpEntry(t, scout.ID, 10, 0)
	require.NoError(t, ledger.Create(ctx, entry))

	t.Run("owner can read own entry", func(t *testing.T) {
		got, err := svc.GetTransaction(ctx, scout.ID, identity.RoleScout, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, got.ID)
	})

	t.Run("admin can read any entry", func(t *testing.T) {
		got, err := svc.GetTransaction(ctx, uuid.New(), identity.RoleAdmin, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, got.ID)
	})

	t.Run("other scout is forbidden", func(t *testing.T) {
		_, err := svc.GetTransaction(ctx, uuid.New(), identity.RoleScout, entry.ID)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "FORBIDDEN", derr.Code)
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := svc.GetTransaction(ctx, scout.ID, identity.RoleScout, uuid.New())
		assert.Error(t, err)
	})
}
