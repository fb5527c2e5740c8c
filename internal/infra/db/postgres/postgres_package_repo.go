package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PackageRepository = (*PostgresPackageRepo)(nil)

type PostgresPackageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPackageRepo(pool *pgxpool.Pool) *PostgresPackageRepo {
	return &PostgresPackageRepo{pool: pool}
}

const packageColumns = `id, name, duration_minutes, data_cap_mb, price_cents, currency, is_active, created_at`

func scanPackage(row pgx.Row) (*model.Package, error) {
	var p model.Package
	err := row.Scan(&p.ID, &p.Name, &p.DurationMinutes, &p.DataCapMB, &p.PriceCents, &p.Currency, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan package: %w", err)
	}
	return &p, nil
}

func (r *PostgresPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	const q = `
INSERT INTO packages (id, name, duration_minutes, data_cap_mb, price_cents, currency, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
  SET name             = EXCLUDED.name,
      duration_minutes = EXCLUDED.duration_minutes,
      data_cap_mb      = EXCLUDED.data_cap_mb,
      price_cents      = EXCLUDED.price_cents,
      currency         = EXCLUDED.currency,
      is_active        = EXCLUDED.is_active;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.Name, p.DurationMinutes, p.DataCapMB, p.PriceCents, p.Currency, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save package: %w", err)
	}
	return nil
}

func (r *PostgresPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPackage(row)
}

func (r *PostgresPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages WHERE is_active = TRUE ORDER BY price_cents ASC;`
	return r.list(ctx, tx, q)
}

func (r *PostgresPackageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	const q = `SELECT ` + packageColumns + ` FROM packages ORDER BY price_cents ASC;`
	return r.list(ctx, tx, q)
}

func (r *PostgresPackageRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Package, error) {
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []*model.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete refuses when issued vouchers reference the package; historical
// vouchers keep their copied duration either way, but the reference must
// stay resolvable.
func (r *PostgresPackageRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const countSQL = `SELECT COUNT(1) FROM vouchers WHERE package_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, countSQL, id)
	if err != nil {
		return err
	}
	var cnt int
	if err := row.Scan(&cnt); err != nil {
		return fmt.Errorf("count vouchers for package: %w", err)
	}
	if cnt > 0 {
		return fmt.Errorf("cannot delete package %s: %d vouchers reference it", id, cnt)
	}

	const delSQL = `DELETE FROM packages WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, delSQL, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
