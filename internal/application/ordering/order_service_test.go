package ordering

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropa/backend/internal/domain/identity"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type memOrderRepo struct {
	orders map[uuid.UUID]*ordering.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*ordering.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, o *ordering.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*ordering.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) List(_ context.Context, filter ordering.OrderFilter) ([]*ordering.Order, int64, error) {
	var out []*ordering.Order
	for _, o := range r.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) Save(_ context.Context, o *ordering.Order) error {
	r.orders[o.ID] = o
	return nil
}

func confirmedOrder(t *testing.T, repo *memOrderRepo, userID uuid.UUID) *ordering.Order {
	t.Helper()
	order, err := ordering.NewOrder(userID, "")
	require.NoError(t, err)
	require.NoError(t, order.AddLine(uuid.New(), 2, decimal.NewFromInt(5)))
	require.NoError(t, order.Confirm())
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestOrderServiceGet(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := NewService(repo, zap.NewNop())
	ownerID := uuid.New()
	order := confirmedOrder(t, repo, ownerID)

	t.Run("owner reads own order", func(t *testing.T) {
		got, err := svc.Get(ctx, ownerID, identity.RoleScout, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.Reference, got.Reference)
	})

	t.Run("admin reads any order", func(t *testing.T) {
		_, err := svc.Get(ctx, uuid.New(), identity.RoleAdmin, order.ID)
		require.NoError(t, err)
	})

	t.Run("other scout is forbidden", func(t *testing.T) {
		_, err := svc.Get(ctx, uuid.New(), identity.RoleScout, order.ID)
		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "FORBIDDEN", derr.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.Get(ctx, ownerID, identity.RoleScout, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderServiceList(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := NewService(repo, zap.NewNop())
	ownerID := uuid.New()
	confirmedOrder(t, repo, ownerID)
	confirmedOrder(t, repo, uuid.New())

	t.Run("scout sees only own orders", func(t *testing.T) {
		orders, total, err := svc.List(ctx, ownerID, identity.RoleScout, ordering.OrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, ownerID, orders[0].UserID)
	})

	t.Run("admin sees all", func(t *testing.T) {
		orders, _, err := svc.List(ctx, uuid.New(), identity.RoleAdmin, ordering.OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})
}

func TestOrderServiceCancel(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := NewService(repo, zap.NewNop())
	order := confirmedOrder(t, repo, uuid.New())

	t.Run("scout is forbidden", func(t *testing.T) {
		_, err := svc.Cancel(ctx, identity.RoleScout, order.ID)
		assert.Error(t, err)
	})

	t.Run("soft cancel keeps the row", func(t *testing.T) {
		got, err := svc.Cancel(ctx, identity.RoleAdmin, order.ID)
		require.NoError(t, err)
		assert.Equal(t, ordering.OrderStatusCancelled, got.Status)

		kept, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, ordering.OrderStatusCancelled, kept.Status)
	})

	t.Run("cancel is final", func(t *testing.T) {
		_, err := svc.Cancel(ctx, identity.RoleAdmin, order.ID)
		assert.Error(t, err)
	})

	t.Run("reverted orders cannot be cancelled", func(t *testing.T) {
		other := confirmedOrder(t, repo, uuid.New())
		require.NoError(t, other.MarkReverted())
		_, err := svc.Cancel(ctx, identity.RoleAdmin, other.ID)
		assert.Error(t, err)
	})
}
