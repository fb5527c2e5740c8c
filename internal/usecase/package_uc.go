// File: internal/usecase/package_uc.go
package usecase

import (
	"context"

	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

// PackageUseCase manages the voucher package catalog.
type PackageUseCase struct {
	repo repository.PackageRepository
}

func NewPackageUseCase(repo repository.PackageRepository) *PackageUseCase {
	return &PackageUseCase{repo: repo}
}

// Create saves or updates a package.
func (uc *PackageUseCase) Create(ctx context.Context, p *model.Package) error {
	return uc.repo.Save(ctx, repository.NoTX, p)
}

// Get retrieves a package by ID.
func (uc *PackageUseCase) Get(ctx context.Context, id string) (*model.Package, error) {
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

// ListActive returns packages offered for sale.
func (uc *PackageUseCase) ListActive(ctx context.Context) ([]*model.Package, error) {
	return uc.repo.ListActive(ctx, repository.NoTX)
}

// ListAll returns every package including retired ones.
func (uc *PackageUseCase) ListAll(ctx context.Context) ([]*model.Package, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

// Delete removes a package from the catalog. Vouchers already issued from
// it are unaffected; duration and cap were copied at issuance.
func (uc *PackageUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, repository.NoTX, id)
}
