package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dadyutenga/voucher/internal/domain"
)

// Account is a domain entity representing a subscriber identified by the
// e-mail address they enter on the splash page. Accounts are never hard
// deleted; IsActive=false deactivates them while preserving voucher and
// transaction history.
type Account struct {
	ID           string
	Email        string
	Phone        string // optional; used for mobile-money receipts
	PasswordHash string // optional; empty for accounts created on first purchase
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time // nil until first successful redemption
}

func NewAccount(id, email, phone string) (*Account, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	return &Account{
		ID:        id,
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (a *Account) IsZero() bool { return a == nil || a.ID == "" }

func (a *Account) Touch() {
	now := time.Now().UTC()
	a.LastLoginAt = &now
}
