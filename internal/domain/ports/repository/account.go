package repository

import (
	"context"

	"github.com/dadyutenga/voucher/internal/domain/model"
)

// -----------------------------
// Accounts
// -----------------------------

type AccountRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Account) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Account, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Account, error)
	CountAccounts(ctx context.Context, tx Tx) (int, error)
}
