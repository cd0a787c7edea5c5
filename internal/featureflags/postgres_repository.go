package featureflags

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Flag values are stored as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL flag repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetFlag retrieves a flag by key.
func (r *PostgresRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	query := `SELECT key, value, updated_at FROM feature_flags WHERE key = $1`

	var (
		flag Flag
		raw  []byte
	)
	err := r.pool.QueryRow(ctx, query, key).Scan(&flag.Key, &raw, &flag.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &flag.Value); err != nil {
		return nil, err
	}
	return &flag, nil
}

// GetAllFlags retrieves all stored flags.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	query := `SELECT key, value, updated_at FROM feature_flags`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*Flag)
	for rows.Next() {
		var (
			flag Flag
			raw  []byte
		)
		if err := rows.Scan(&flag.Key, &raw, &flag.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &flag.Value); err != nil {
			return nil, err
		}
		out[flag.Key] = &flag
	}
	return out, rows.Err()
}

// SetFlag stores a flag.
func (r *PostgresRepository) SetFlag(ctx context.Context, flag *Flag) error {
	raw, err := json.Marshal(flag.Value)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO feature_flags (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query, flag.Key, raw, flag.UpdatedAt)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
