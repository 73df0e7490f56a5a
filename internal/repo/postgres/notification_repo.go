package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepo struct {
	pool *pgxpool.Pool
}

type NotificationRecord struct {
	ID        int64
	UserID    int64
	Type      string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, userID int64, kind, message string) (NotificationRecord, error) {
	if r.pool == nil {
		return NotificationRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || message == "" {
		return NotificationRecord{}, fmt.Errorf("invalid notification payload")
	}

	var record NotificationRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO notifications (user_id, type, message, is_read, created_at)
VALUES ($1, $2, $3, FALSE, NOW())
RETURNING id, user_id, type, message, is_read, created_at
`, userID, kind, message).Scan(&record.ID, &record.UserID, &record.Type, &record.Message, &record.IsRead, &record.CreatedAt)
	if err != nil {
		return NotificationRecord{}, fmt.Errorf("create notification: %w", err)
	}

	return record, nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]NotificationRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, type, message, is_read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var records []NotificationRecord
	for rows.Next() {
		var record NotificationRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.Type, &record.Message, &record.IsRead, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return records, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE notifications
SET is_read = TRUE
WHERE id = $1 AND user_id = $2
`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	_, err := r.pool.Exec(ctx, `
UPDATE notifications
SET is_read = TRUE
WHERE user_id = $1 AND is_read = FALSE
`, userID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}

	return nil
}
