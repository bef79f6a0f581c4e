package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vibequiz/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ledger stores creation records in the creation_records table.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

const selectRecord = `SELECT id::text, quiz_id, creator_wallet, total_cost_wei::text, tx_hash, status, error, created_at, updated_at
FROM creation_records`

// Save inserts a record or updates its outcome columns.
func (l *Ledger) Save(ctx context.Context, r domain.CreationRecord) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	totalCost := r.TotalCostWei
	if totalCost == "" {
		totalCost = "0"
	}
	_, err := l.pool.Exec(ctx, `
INSERT INTO creation_records (id, quiz_id, creator_wallet, total_cost_wei, tx_hash, status, error, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    tx_hash = EXCLUDED.tx_hash,
    status = EXCLUDED.status,
    error = EXCLUDED.error,
    updated_at = EXCLUDED.updated_at`,
		r.ID, r.QuizID, r.CreatorWallet, totalCost, r.TxHash, string(r.Status), r.Error, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save creation record: %w", err)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, id string) (domain.CreationRecord, error) {
	row := l.pool.QueryRow(ctx, selectRecord+` WHERE id = $1`, id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CreationRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.CreationRecord{}, fmt.Errorf("load creation record: %w", err)
	}
	return record, nil
}

// Orphans lists records whose escrow never confirmed, oldest first.
func (l *Ledger) Orphans(ctx context.Context) ([]domain.CreationRecord, error) {
	rows, err := l.pool.Query(ctx, selectRecord+` WHERE status <> $1 ORDER BY created_at`, string(domain.CreationEscrowed))
	if err != nil {
		return nil, fmt.Errorf("list orphans: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CreationRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orphan: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (domain.CreationRecord, error) {
	var (
		r      domain.CreationRecord
		status string
	)
	err := row.Scan(&r.ID, &r.QuizID, &r.CreatorWallet, &r.TotalCostWei, &r.TxHash, &status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	r.Status = domain.CreationStatus(status)
	return r, err
}
