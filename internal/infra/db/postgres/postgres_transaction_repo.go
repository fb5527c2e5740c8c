package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, account_id, voucher_id, package_id, reference, amount_cents, currency, method, status, metadata, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var t model.Transaction
	var meta []byte
	err := row.Scan(
		&t.ID, &t.AccountID, &t.VoucherID, &t.PackageID, &t.Reference,
		&t.AmountCents, &t.Currency, &t.Method, &t.Status, &meta,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &t, nil
}

// Save upserts the transaction by id; metadata is stored as JSONB.
func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO transactions (id, account_id, voucher_id, package_id, reference, amount_cents, currency, method, status, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
  account_id = EXCLUDED.account_id,
  voucher_id = EXCLUDED.voucher_id,
  status     = EXCLUDED.status,
  metadata   = EXCLUDED.metadata,
  updated_at = EXCLUDED.updated_at;
`
	t.UpdatedAt = time.Now().UTC()
	_, err = execSQL(ctx, r.pool, tx, q,
		t.ID, t.AccountID, t.VoucherID, t.PackageID, t.Reference,
		t.AmountCents, t.Currency, t.Method, t.Status, meta,
		t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

// FindByProviderID matches the Daraja checkout id stored in metadata.
func (r *transactionRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE metadata->>'checkout_request_id' = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, providerID)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, accountID, voucherID *string) error {
	const q = `
UPDATE transactions
   SET status     = $2,
       account_id = COALESCE($3, account_id),
       voucher_id = COALESCE($4, voucher_id),
       updated_at = NOW()
 WHERE id = $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, status, accountID, voucherID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *transactionRepo) ListByAccount(ctx context.Context, tx repository.Tx, accountID string) ([]*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE status = 'pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepo) SumCompletedByMethod(ctx context.Context, tx repository.Tx) (map[string]int64, error) {
	const q = `SELECT method, COALESCE(SUM(amount_cents), 0) FROM transactions WHERE status = 'completed' GROUP BY method;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var method string
		var sum int64
		if err := rows.Scan(&method, &sum); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[method] = sum
	}
	return out, rows.Err()
}
