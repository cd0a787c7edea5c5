package device

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL registration repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const registrationColumns = `
	id, member_id, push_token, platform, COALESCE(device_label, ''),
	COALESCE(last_known_ip, ''), is_active, created_at, updated_at
`

func scanRegistration(row pgx.Row) (*Registration, error) {
	var reg Registration
	err := row.Scan(
		&reg.ID,
		&reg.MemberID,
		&reg.PushToken,
		&reg.Platform,
		&reg.DeviceLabel,
		&reg.LastKnownIP,
		&reg.IsActive,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByKey retrieves the registration for (member, platform, token).
func (r *PostgresRepository) GetByKey(ctx context.Context, memberID string, platform Platform, token string) (*Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM device_registrations
		WHERE member_id = $1 AND platform = $2 AND push_token = $3
	`

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, memberID, platform, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

// Create inserts a new registration.
func (r *PostgresRepository) Create(ctx context.Context, reg *Registration) error {
	query := `
		INSERT INTO device_registrations (
			id, member_id, push_token, platform, device_label,
			last_known_ip, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.MemberID,
		reg.PushToken,
		reg.Platform,
		reg.DeviceLabel,
		reg.LastKnownIP,
		reg.IsActive,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	return err
}

// Update rewrites a registration's metadata and activity flag.
func (r *PostgresRepository) Update(ctx context.Context, reg *Registration) error {
	query := `
		UPDATE device_registrations SET
			device_label = NULLIF($2, ''),
			last_known_ip = NULLIF($3, ''),
			is_active = $4,
			updated_at = $5
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.DeviceLabel,
		reg.LastKnownIP,
		reg.IsActive,
		reg.UpdatedAt,
	)
	return err
}

// DeactivateSlot deactivates active registrations for (member, platform)
// holding a different token.
func (r *PostgresRepository) DeactivateSlot(ctx context.Context, memberID string, platform Platform, keepToken string) (int64, error) {
	query := `
		UPDATE device_registrations
		SET is_active = FALSE, updated_at = NOW()
		WHERE member_id = $1 AND platform = $2 AND is_active = TRUE AND push_token <> $3
	`

	result, err := r.pool.Exec(ctx, query, memberID, platform, keepToken)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// DeactivateByToken deactivates every active registration holding the token.
func (r *PostgresRepository) DeactivateByToken(ctx context.Context, token string) error {
	query := `
		UPDATE device_registrations
		SET is_active = FALSE, updated_at = NOW()
		WHERE push_token = $1 AND is_active = TRUE
	`

	_, err := r.pool.Exec(ctx, query, token)
	return err
}

// ListActiveByMembers retrieves all active registrations for the members.
func (r *PostgresRepository) ListActiveByMembers(ctx context.Context, memberIDs []string) ([]*Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM device_registrations
		WHERE member_id = ANY($1) AND is_active = TRUE
	`

	rows, err := r.pool.Query(ctx, query, memberIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRegistrations(rows)
}

// ListByMember retrieves a member's active registrations, most recently
// updated first.
func (r *PostgresRepository) ListByMember(ctx context.Context, memberID string) ([]*Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM device_registrations
		WHERE member_id = $1 AND is_active = TRUE
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRegistrations(rows)
}

// DeactivateByID deactivates one registration owned by the member.
func (r *PostgresRepository) DeactivateByID(ctx context.Context, id, memberID string) (bool, error) {
	query := `
		UPDATE device_registrations
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND member_id = $2 AND is_active = TRUE
	`

	result, err := r.pool.Exec(ctx, query, id, memberID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func collectRegistrations(rows pgx.Rows) ([]*Registration, error) {
	var out []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
