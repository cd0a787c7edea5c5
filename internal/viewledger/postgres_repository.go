package viewledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// The spend path relies on a single-row conditional UPDATE
// (remaining_view_tokens > 0, checked via RowsAffected) rather than an
// in-process lock, so the no-negative-balance invariant holds across
// multiple service instances sharing the database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL ledger repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Spend records the view, deducting one token on a first view. The insert
// and the decrement commit or roll back together.
func (r *PostgresRepository) Spend(ctx context.Context, viewerID, viewedID string) (SpendResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SpendResult{}, fmt.Errorf("begin spend tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The unique (viewer_id, viewed_id) constraint makes the repeat-view
	// check race-free: at most one concurrent inserter wins.
	insertView := `
		INSERT INTO profile_views (viewer_id, viewed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (viewer_id, viewed_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insertView, viewerID, viewedID, time.Now())
	if err != nil {
		return SpendResult{}, fmt.Errorf("insert view record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Already unlocked; the repeat view is free.
		var remaining int
		balanceQuery := `SELECT remaining_view_tokens FROM members WHERE account_id = $1`
		if err := tx.QueryRow(ctx, balanceQuery, viewerID).Scan(&remaining); err != nil {
			return SpendResult{}, fmt.Errorf("read balance: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return SpendResult{}, err
		}
		return SpendResult{AlreadyUnlocked: true, RemainingTokens: remaining}, nil
	}

	// Conditional decrement: zero rows means the balance is exhausted and
	// the whole transaction, view record included, rolls back.
	spend := `
		UPDATE members
		SET remaining_view_tokens = remaining_view_tokens - 1
		WHERE account_id = $1 AND remaining_view_tokens > 0
		RETURNING remaining_view_tokens
	`
	var remaining int
	err = tx.QueryRow(ctx, spend, viewerID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SpendResult{}, ErrInsufficientTokens
		}
		return SpendResult{}, fmt.Errorf("decrement balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SpendResult{}, err
	}
	return SpendResult{Spent: true, RemainingTokens: remaining}, nil
}

// RemainingTokens returns the viewer's current balance.
func (r *PostgresRepository) RemainingTokens(ctx context.Context, viewerID string) (int, error) {
	query := `SELECT remaining_view_tokens FROM members WHERE account_id = $1`

	var remaining int
	err := r.pool.QueryRow(ctx, query, viewerID).Scan(&remaining)
	return remaining, err
}

// ListViewers retrieves up to limit view records targeting viewedID,
// newest first.
func (r *PostgresRepository) ListViewers(ctx context.Context, viewedID string, limit int) ([]*ViewRecord, error) {
	query := `
		SELECT viewer_id, viewed_id, created_at
		FROM profile_views
		WHERE viewed_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, viewedID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ViewRecord
	for rows.Next() {
		var rec ViewRecord
		if err := rows.Scan(&rec.ViewerID, &rec.ViewedID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
