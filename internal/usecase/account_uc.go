// File: internal/usecase/account_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/infra/logging"
)

// Compile-time check
var _ AccountUseCase = (*accountUC)(nil)

// AccountUseCase exposes subscriber account operations used by portal,
// payment and admin flows.
type AccountUseCase interface {
	// RegisterOrFetch resolves the account for an e-mail address, creating
	// it on first contact (first purchase or demo request).
	RegisterOrFetch(ctx context.Context, email, phone string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// Deactivate flags the account inactive; vouchers and transactions are
	// kept for audit.
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*model.Account, error)
	Count(ctx context.Context) (int, error)
}

type accountUC struct {
	accounts repository.AccountRepository
	log      *zerolog.Logger
}

func NewAccountUseCase(accounts repository.AccountRepository, logger *zerolog.Logger) *accountUC {
	l := logger.With().Str("component", "AccountUC").Logger()
	return &accountUC{accounts: accounts, log: &l}
}

func (u *accountUC) RegisterOrFetch(ctx context.Context, email, phone string) (*model.Account, error) {
	defer logging.TraceDuration(u.log, "AccountUC.RegisterOrFetch")()

	email = strings.ToLower(strings.TrimSpace(email))
	acc, err := u.accounts.FindByEmail(ctx, repository.NoTX, email)
	if err == nil {
		if phone != "" && acc.Phone == "" {
			acc.Phone = phone
			if err := u.accounts.Save(ctx, repository.NoTX, acc); err != nil {
				u.log.Warn().Err(err).Str("account_id", acc.ID).Msg("failed to record phone")
			}
		}
		return acc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	acc, err = model.NewAccount("", email, phone)
	if err != nil {
		return nil, err
	}
	if err := u.accounts.Save(ctx, repository.NoTX, acc); err != nil {
		// A concurrent registration may have won; fall back to the read.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return u.accounts.FindByEmail(ctx, repository.NoTX, email)
		}
		return nil, err
	}
	u.log.Info().Str("account_id", acc.ID).Msg("account registered")
	return acc, nil
}

func (u *accountUC) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return u.accounts.FindByEmail(ctx, repository.NoTX, strings.ToLower(strings.TrimSpace(email)))
}

func (u *accountUC) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return u.accounts.FindByID(ctx, repository.NoTX, id)
}

func (u *accountUC) Deactivate(ctx context.Context, id string) error {
	acc, err := u.accounts.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return nil
	}
	acc.IsActive = false
	return u.accounts.Save(ctx, repository.NoTX, acc)
}

func (u *accountUC) List(ctx context.Context, offset, limit int) ([]*model.Account, error) {
	return u.accounts.List(ctx, repository.NoTX, offset, limit)
}

func (u *accountUC) Count(ctx context.Context) (int, error) {
	return u.accounts.CountAccounts(ctx, repository.NoTX)
}
