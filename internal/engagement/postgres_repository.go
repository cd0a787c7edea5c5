package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL action repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert finds or creates the action row for (actor, target, kind) in one
// round trip. xmax = 0 distinguishes a fresh insert from a conflict update.
func (r *PostgresRepository) Upsert(ctx context.Context, action *Action) (bool, error) {
	query := `
		INSERT INTO engagement_actions (id, actor_id, target_id, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (actor_id, target_id, kind)
		DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at, (xmax = 0) AS created
	`

	now := time.Now()
	var created bool
	err := r.pool.QueryRow(ctx, query,
		action.ID,
		action.ActorID,
		action.TargetID,
		action.Kind,
		now,
	).Scan(&action.ID, &action.CreatedAt, &action.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert action: %w", err)
	}

	return created, nil
}

// Delete removes the action row if present.
func (r *PostgresRepository) Delete(ctx context.Context, actorID, targetID string, kind ActionKind) (bool, error) {
	query := `
		DELETE FROM engagement_actions
		WHERE actor_id = $1 AND target_id = $2 AND kind = $3
	`

	result, err := r.pool.Exec(ctx, query, actorID, targetID, kind)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ListByActor retrieves actions performed by the actor, newest first.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID string, filter ListFilter) ([]*Action, error) {
	return r.list(ctx, "actor_id", actorID, filter)
}

// ListByTarget retrieves actions received by the target, newest first.
func (r *PostgresRepository) ListByTarget(ctx context.Context, targetID string, filter ListFilter) ([]*Action, error) {
	return r.list(ctx, "target_id", targetID, filter)
}

func (r *PostgresRepository) list(ctx context.Context, column, id string, filter ListFilter) ([]*Action, error) {
	query := fmt.Sprintf(`
		SELECT id, actor_id, target_id, kind, created_at, updated_at
		FROM engagement_actions
		WHERE %s = $1
	`, column)
	args := []any{id}

	if filter.Kind != "" {
		query += ` AND kind = $2`
		args = append(args, filter.Kind)
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.ActorID, &a.TargetID, &a.Kind, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
