package identity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/shared"
)

// Role represents a user role in the troop
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleScout      Role = "Scout"
)

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleScout:
		return true
	}
	return false
}

// CanManageTroopStore returns true if the role may place troop-purchase orders,
// sell products, and top up wallets
func (r Role) CanManageTroopStore() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UserStatus represents the lifecycle status of a user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User represents a troop member. User management itself lives outside this
// service; the settlement flow only needs identity, role and the cached
// balance projection.
type User struct {
	shared.BaseAggregateRoot
	Username string
	FullName string
	Email    string
	Role     Role
	Status   UserStatus
	// AccountBalance is a derived projection of the wallet ledger. It is
	// refreshed in the same transaction as every ledger append and must
	// always equal the fold over the user's wallet transactions.
	AccountBalance decimal.Decimal
}

// NewUser creates a new user
func NewUser(username, fullName, email string, role Role) (*User, error) {
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		FullName:          fullName,
		Email:             email,
		Role:              role,
		Status:            UserStatusActive,
		AccountBalance:    decimal.Zero,
	}, nil
}

// IsActive returns true if the user is active
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Deactivate marks the user as inactive
func (u *User) Deactivate() {
	u.Status = UserStatusInactive
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}
