package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrReferenceTaken   = errors.New("purchase reference already exists")
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

type PurchaseRecord struct {
	ID        int64
	UserID    int64
	CourseID  int64
	Reference string
	Amount    int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

func (r *PurchaseRepo) CreatePending(ctx context.Context, userID, courseID int64, reference string, amount int64) (PurchaseRecord, error) {
	if r.pool == nil {
		return PurchaseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	reference = strings.TrimSpace(reference)
	if userID <= 0 || courseID <= 0 || reference == "" || amount <= 0 {
		return PurchaseRecord{}, fmt.Errorf("invalid purchase create payload")
	}

	record, err := scanPurchase(r.pool.QueryRow(ctx, `
INSERT INTO purchases (user_id, course_id, reference, amount, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())
RETURNING id, user_id, course_id, reference, amount, status, created_at, updated_at
`, userID, courseID, reference, amount))
	if err != nil {
		if isUniqueViolation(err) {
			return PurchaseRecord{}, ErrReferenceTaken
		}
		return PurchaseRecord{}, fmt.Errorf("create pending purchase: %w", err)
	}

	return record, nil
}

func (r *PurchaseRepo) FindByReference(ctx context.Context, reference string) (PurchaseRecord, error) {
	if r.pool == nil {
		return PurchaseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return PurchaseRecord{}, fmt.Errorf("reference is required")
	}

	record, err := scanPurchase(r.pool.QueryRow(ctx, `
SELECT id, user_id, course_id, reference, amount, status, created_at, updated_at
FROM purchases
WHERE reference = $1
LIMIT 1
`, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseRecord{}, ErrPurchaseNotFound
		}
		return PurchaseRecord{}, fmt.Errorf("find purchase by reference: %w", err)
	}

	return record, nil
}

// MarkSuccess flips the row matching reference and owner to success.
// A row that is already success is returned unchanged with changed=false,
// which makes the call safe under webhook redelivery and the
// webhook/redirect race. The owner filter stops one user's verified
// reference from mutating another user's row; ownerUserID <= 0 skips the
// filter for the webhook path, where the owner comes from the row itself.
func (r *PurchaseRepo) MarkSuccess(ctx context.Context, reference string, ownerUserID int64) (PurchaseRecord, bool, error) {
	if r.pool == nil {
		return PurchaseRecord{}, false, fmt.Errorf("postgres pool is nil")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return PurchaseRecord{}, false, fmt.Errorf("reference is required")
	}

	record, err := scanPurchase(r.pool.QueryRow(ctx, `
UPDATE purchases
SET status = 'success', updated_at = NOW()
WHERE reference = $1
  AND ($2 <= 0 OR user_id = $2)
  AND status <> 'success'
RETURNING id, user_id, course_id, reference, amount, status, created_at, updated_at
`, reference, ownerUserID))
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return PurchaseRecord{}, false, fmt.Errorf("mark purchase success: %w", err)
	}

	existing, err := r.FindByReference(ctx, reference)
	if err != nil {
		return PurchaseRecord{}, false, err
	}
	if ownerUserID > 0 && existing.UserID != ownerUserID {
		return PurchaseRecord{}, false, ErrPurchaseNotFound
	}
	return existing, false, nil
}

func scanPurchase(row pgx.Row) (PurchaseRecord, error) {
	var record PurchaseRecord
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.CourseID,
		&record.Reference,
		&record.Amount,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return PurchaseRecord{}, err
	}
	return record, nil
}
