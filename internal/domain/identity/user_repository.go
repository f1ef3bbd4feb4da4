package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Save persists the user with an optimistic version check
	Save(ctx context.Context, user *User) error

	// ApplyBalanceDelta atomically adds delta to the user's cached balance,
	// failing with shared.ErrInsufficientBalance when the result would fall
	// below minBalance. The conditional update takes the row lock that
	// serializes concurrent settlements for the same user. Returns the
	// balance after the change.
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta, minBalance decimal.Decimal) (decimal.Decimal, error)
}
