package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/dadyutenga/voucher/internal/domain"
)

// Package is a catalog offering: a named duration/cap at a price. Vouchers
// issued from a package copy its duration and cap at issuance, so later
// price/availability edits never affect already-issued vouchers.
type Package struct {
	ID              string
	Name            string
	DurationMinutes int
	DataCapMB       *int // nil means unlimited
	PriceCents      int64
	Currency        string
	IsActive        bool
	CreatedAt       time.Time
}

func NewPackage(id, name string, durationMinutes int, dataCapMB *int, priceCents int64, currency string) (*Package, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || durationMinutes <= 0 || priceCents < 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Package{
		ID:              id,
		Name:            name,
		DurationMinutes: durationMinutes,
		DataCapMB:       dataCapMB,
		PriceCents:      priceCents,
		Currency:        currency,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (p *Package) IsZero() bool { return p == nil || p.ID == "" }
