package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	userID := uuid.New()

	t.Run("snapshots balance before and after", func(t *testing.T) {
		tx, err := NewTransaction(userID, decimal.NewFromInt(25), decimal.NewFromInt(10), ActionTopUp, "deposit")
		require.NoError(t, err)
		assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(10)))
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(35)))
		assert.True(t, tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.Amount)))
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewTransaction(userID, decimal.Zero, decimal.Zero, ActionTopUp, "")
		assert.Error(t, err)
	})

	t.Run("rejects empty user", func(t *testing.T) {
		_, err := NewTransaction(uuid.Nil, decimal.NewFromInt(1), decimal.Zero, ActionTopUp, "")
		assert.Error(t, err)
	})
}

func TestNewTopUpTransaction(t *testing.T) {
	userID := uuid.New()

	tx, err := NewTopUpTransaction(userID, decimal.NewFromInt(50), decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, tx.IsCredit())
	assert.Equal(t, ActionTopUp, tx.Action)

	_, err = NewTopUpTransaction(userID, decimal.Zero, decimal.Zero, "")
	assert.Error(t, err, "top-ups require a positive amount")

	_, err = NewTopUpTransaction(userID, decimal.NewFromInt(-5), decimal.Zero, "")
	assert.Error(t, err)
}

func TestNewSaleTransaction(t *testing.T) {
	userID := uuid.New()

	tx, err := NewSaleTransaction(userID, decimal.NewFromInt(15), decimal.NewFromInt(20), "order TRP-1")
	require.NoError(t, err)
	assert.True(t, tx.IsDebit())
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-15)), "sale totals are recorded negative")
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(5)))

	_, err = NewSaleTransaction(userID, decimal.Zero, decimal.Zero, "")
	assert.Error(t, err)
}

func TestNewReversalTransaction(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	original, err := NewSaleTransaction(userID, decimal.NewFromInt(15), decimal.NewFromInt(20), "")
	require.NoError(t, err)
	original.WithOrderID(orderID)

	reversal, err := NewReversalTransaction(original, original.BalanceAfter, "revert sale")
	require.NoError(t, err)
	assert.True(t, reversal.IsReversal())
	assert.Equal(t, original.ID, *reversal.ParentTransactionID)
	assert.Equal(t, orderID, *reversal.OrderID)
	assert.True(t, reversal.Amount.Equal(decimal.NewFromInt(15)), "inverse amount")
	assert.True(t, reversal.BalanceAfter.Equal(original.BalanceBefore),
		"reversal restores the original balance")
}
