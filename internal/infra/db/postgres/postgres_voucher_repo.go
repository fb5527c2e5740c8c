package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.VoucherRepository = (*voucherRepo)(nil)

type voucherRepo struct {
	pool *pgxpool.Pool
}

func NewVoucherRepo(pool *pgxpool.Pool) repository.VoucherRepository {
	return &voucherRepo{pool: pool}
}

const voucherColumns = `id, code, account_id, package_id, duration_minutes, data_cap_mb, status, created_at, expires_at, used_at`

func scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.ID, &v.Code, &v.AccountID, &v.PackageID, &v.DurationMinutes,
		&v.DataCapMB, &v.Status, &v.CreatedAt, &v.ExpiresAt, &v.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &v, nil
}

func (r *voucherRepo) Create(ctx context.Context, tx repository.Tx, v *model.Voucher) error {
	const q = `
INSERT INTO vouchers (id, code, account_id, package_id, duration_minutes, data_cap_mb, status, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		v.ID, v.Code, v.AccountID, v.PackageID, v.DurationMinutes,
		v.DataCapMB, v.Status, v.CreatedAt, v.ExpiresAt, v.UsedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *voucherRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Voucher, error) {
	const q = `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanVoucher(row)
}

func (r *voucherRepo) FindByCodeAndAccount(ctx context.Context, tx repository.Tx, code, accountID string) (*model.Voucher, error) {
	const q = `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1 AND account_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, code, accountID)
	if err != nil {
		return nil, err
	}
	return scanVoucher(row)
}

func (r *voucherRepo) FindByAccount(ctx context.Context, tx repository.Tx, accountID string) ([]*model.Voucher, error) {
	const q = `SELECT ` + voucherColumns + ` FROM vouchers WHERE account_id = $1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVouchers(rows)
}

func (r *voucherRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Voucher, error) {
	const q = `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVouchers(rows)
}

func collectVouchers(rows pgx.Rows) ([]*model.Voucher, error) {
	var out []*model.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateStatusIfCurrent is the CAS primitive: the status predicate is part
// of the UPDATE itself, so two racing transitions cannot both succeed.
func (r *voucherRepo) UpdateStatusIfCurrent(ctx context.Context, tx repository.Tx, id string, expected, next model.VoucherStatus, upd repository.StatusUpdate) error {
	const q = `
UPDATE vouchers
   SET status     = $3,
       expires_at = COALESCE($4, expires_at),
       used_at    = COALESCE($5, used_at)
 WHERE id = $1 AND status = $2;
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, expected, next, upd.ExpiresAt, upd.UsedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// SetExpiresAtIfNull arbitrates concurrent first redemptions: exactly one
// caller's UPDATE matches the NULL predicate and starts the window.
func (r *voucherRepo) SetExpiresAtIfNull(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) error {
	const q = `
UPDATE vouchers
   SET expires_at = $2
 WHERE id = $1 AND status = 'active' AND expires_at IS NULL;
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *voucherRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
UPDATE vouchers
   SET status = 'expired'
 WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *voucherRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `SELECT status, COUNT(1) FROM vouchers GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = n
	}
	return out, rows.Err()
}
