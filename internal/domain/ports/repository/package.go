package repository

import (
	"context"

	"github.com/dadyutenga/voucher/internal/domain/model"
)

// PackageRepository is the port for catalog persistence.
type PackageRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Package) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Package, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Package, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Package, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
