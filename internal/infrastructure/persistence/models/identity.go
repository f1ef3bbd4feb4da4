package models

import (
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate root.
type UserModel struct {
	AggregateModel
	Username       string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	FullName       string          `gorm:"type:varchar(200)"`
	Email          string          `gorm:"type:varchar(200);index"`
	Role           string          `gorm:"type:varchar(20);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'active';index"`
	AccountBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		FullName:          m.FullName,
		Email:             m.Email,
		Role:              identity.Role(m.Role),
		Status:            identity.UserStatus(m.Status),
		AccountBalance:    m.AccountBalance,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.FullName = u.FullName
	m.Email = u.Email
	m.Role = string(u.Role)
	m.Status = string(u.Status)
	m.AccountBalance = u.AccountBalance
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
