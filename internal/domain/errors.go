package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound               = errors.New("entity not found")
	ErrAlreadyExists          = errors.New("entity already exists")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrDuplicateCode          = errors.New("voucher code already exists")
	ErrVoucherUsed            = errors.New("voucher already used")
	ErrVoucherExpired         = errors.New("voucher has expired")
	ErrInvalidTransition      = errors.New("invalid voucher status transition")
	ErrConcurrentModification = errors.New("voucher was modified concurrently")
	ErrInvalidClientID        = errors.New("invalid client hardware address")
	ErrAccountInactive        = errors.New("account is deactivated")
	ErrRateLimited            = errors.New("too many requests")
	ErrLockHeld               = errors.New("lock is held by another caller")

	// Infra-level errors surfaced through repositories
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context for query")
)
