package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL notification repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a new notification.
func (r *PostgresRepository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, sender_id, kind, title, body, is_read, related_id, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''), $9)
	`

	_, err := r.pool.Exec(ctx, query,
		n.ID,
		n.RecipientID,
		n.SenderID,
		n.Kind,
		n.Title,
		n.Body,
		n.IsRead,
		n.RelatedID,
		n.CreatedAt,
	)
	return err
}

// ListByRecipient retrieves up to limit notifications, newest first.
func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error) {
	query := `
		SELECT id, recipient_id, COALESCE(sender_id, ''), kind, title, body,
		       is_read, COALESCE(related_id, ''), created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.pool.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.SenderID,
			&n.Kind,
			&n.Title,
			&n.Body,
			&n.IsRead,
			&n.RelatedID,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead sets the read flag on one notification, scoped to the recipient.
func (r *PostgresRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, recipientID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkAllRead sets the read flag on every unread notification for the recipient.
func (r *PostgresRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_id = $1 AND is_read = FALSE
	`

	result, err := r.pool.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CountUnread returns the recipient's unread notification count.
func (r *PostgresRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND is_read = FALSE
	`

	var count int64
	err := r.pool.QueryRow(ctx, query, recipientID).Scan(&count)
	return count, err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
