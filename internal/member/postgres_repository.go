package member

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL member repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a member by account ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Member, error) {
	query := `
		SELECT
			account_id, gender, is_active, is_verified, is_premium,
			remaining_view_tokens, last_active_at, created_at
		FROM members
		WHERE account_id = $1
	`

	var (
		m            Member
		lastActiveAt *time.Time
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Gender,
		&m.IsActive,
		&m.IsVerified,
		&m.IsPremium,
		&m.RemainingViewTokens,
		&lastActiveAt,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if lastActiveAt != nil {
		m.LastActiveAt = *lastActiveAt
	}

	return &m, nil
}

// ListIDsBySegment retrieves active member IDs in the given segment.
func (r *PostgresRepository) ListIDsBySegment(ctx context.Context, segment Segment) ([]string, error) {
	query := `SELECT account_id FROM members WHERE is_active = TRUE`
	args := []any{}

	switch segment {
	case SegmentPremium:
		query += ` AND is_premium = TRUE`
	case SegmentRecentlyActive:
		query += ` AND last_active_at >= $1`
		args = append(args, time.Now().Add(-RecentActivityWindow))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
