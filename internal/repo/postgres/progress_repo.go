package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// MarkCompleted upserts the (user, lesson) progress row. Re-reporting a
// completed lesson refreshes completed_at and nothing else.
func (r *ProgressRepo) MarkCompleted(ctx context.Context, userID, lessonID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || lessonID <= 0 {
		return fmt.Errorf("invalid progress payload")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO user_progress (user_id, lesson_id, is_completed, completed_at)
VALUES ($1, $2, TRUE, NOW())
ON CONFLICT (user_id, lesson_id)
DO UPDATE SET is_completed = TRUE, completed_at = NOW()
`, userID, lessonID)
	if err != nil {
		return fmt.Errorf("mark lesson completed: %w", err)
	}

	return nil
}

func (r *ProgressRepo) CompletedLessonIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT lesson_id
FROM user_progress
WHERE user_id = $1 AND is_completed = TRUE
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed lessons: %w", err)
	}
	defer rows.Close()

	completed := make(map[int64]struct{})
	for rows.Next() {
		var lessonID int64
		if err := rows.Scan(&lessonID); err != nil {
			return nil, fmt.Errorf("scan completed lesson: %w", err)
		}
		completed[lessonID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed lessons: %w", err)
	}

	return completed, nil
}
