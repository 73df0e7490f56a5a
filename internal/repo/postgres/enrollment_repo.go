package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("user already enrolled in course")
)

type EnrollmentRepo struct {
	pool *pgxpool.Pool
}

type EnrollmentRecord struct {
	ID         int64
	UserID     int64
	CourseID   int64
	EnrolledAt time.Time
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *EnrollmentRepo {
	return &EnrollmentRepo{pool: pool}
}

// Create inserts the (user, course) pair. A concurrent duplicate insert
// surfaces as ErrAlreadyEnrolled via the unique constraint; callers decide
// whether that is an error (it almost never is).
func (r *EnrollmentRepo) Create(ctx context.Context, userID, courseID int64) (EnrollmentRecord, error) {
	if r.pool == nil {
		return EnrollmentRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || courseID <= 0 {
		return EnrollmentRecord{}, fmt.Errorf("invalid enrollment payload")
	}

	var record EnrollmentRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO enrollments (user_id, course_id, enrolled_at)
VALUES ($1, $2, NOW())
RETURNING id, user_id, course_id, enrolled_at
`, userID, courseID).Scan(&record.ID, &record.UserID, &record.CourseID, &record.EnrolledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return EnrollmentRecord{}, ErrAlreadyEnrolled
		}
		return EnrollmentRecord{}, fmt.Errorf("create enrollment: %w", err)
	}

	return record, nil
}

func (r *EnrollmentRepo) Find(ctx context.Context, userID, courseID int64) (EnrollmentRecord, error) {
	if r.pool == nil {
		return EnrollmentRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record EnrollmentRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, course_id, enrolled_at
FROM enrollments
WHERE user_id = $1 AND course_id = $2
LIMIT 1
`, userID, courseID).Scan(&record.ID, &record.UserID, &record.CourseID, &record.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EnrollmentRecord{}, ErrEnrollmentNotFound
		}
		return EnrollmentRecord{}, fmt.Errorf("find enrollment: %w", err)
	}

	return record, nil
}

func (r *EnrollmentRepo) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	_, err := r.Find(ctx, userID, courseID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrEnrollmentNotFound) {
		return false, nil
	}
	return false, err
}

func (r *EnrollmentRepo) ListForUser(ctx context.Context, userID int64) ([]EnrollmentRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, course_id, enrolled_at
FROM enrollments
WHERE user_id = $1
ORDER BY enrolled_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var records []EnrollmentRecord
	for rows.Next() {
		var record EnrollmentRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.CourseID, &record.EnrolledAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return records, nil
}
