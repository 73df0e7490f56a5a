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
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrCertificateExists   = errors.New("certificate already issued")
)

type CertificateRepo struct {
	pool *pgxpool.Pool
}

type CertificateRecord struct {
	ID       int64
	UserID   int64
	CourseID int64
	Code     string
	IssuedAt time.Time
}

func NewCertificateRepo(pool *pgxpool.Pool) *CertificateRepo {
	return &CertificateRepo{pool: pool}
}

func (r *CertificateRepo) Create(ctx context.Context, userID, courseID int64, code string) (CertificateRecord, error) {
	if r.pool == nil {
		return CertificateRecord{}, fmt.Errorf("postgres pool is nil")
	}
	code = strings.TrimSpace(code)
	if userID <= 0 || courseID <= 0 || code == "" {
		return CertificateRecord{}, fmt.Errorf("invalid certificate payload")
	}

	var record CertificateRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO certificates (user_id, course_id, code, issued_at)
VALUES ($1, $2, $3, NOW())
RETURNING id, user_id, course_id, code, issued_at
`, userID, courseID, code).Scan(&record.ID, &record.UserID, &record.CourseID, &record.Code, &record.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return CertificateRecord{}, ErrCertificateExists
		}
		return CertificateRecord{}, fmt.Errorf("create certificate: %w", err)
	}

	return record, nil
}

func (r *CertificateRepo) FindByUserAndCourse(ctx context.Context, userID, courseID int64) (CertificateRecord, error) {
	if r.pool == nil {
		return CertificateRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record CertificateRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, course_id, code, issued_at
FROM certificates
WHERE user_id = $1 AND course_id = $2
LIMIT 1
`, userID, courseID).Scan(&record.ID, &record.UserID, &record.CourseID, &record.Code, &record.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CertificateRecord{}, ErrCertificateNotFound
		}
		return CertificateRecord{}, fmt.Errorf("find certificate: %w", err)
	}

	return record, nil
}

func (r *CertificateRepo) FindByCode(ctx context.Context, code string) (CertificateRecord, error) {
	if r.pool == nil {
		return CertificateRecord{}, fmt.Errorf("postgres pool is nil")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return CertificateRecord{}, fmt.Errorf("code is required")
	}

	var record CertificateRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, course_id, code, issued_at
FROM certificates
WHERE code = $1
LIMIT 1
`, code).Scan(&record.ID, &record.UserID, &record.CourseID, &record.Code, &record.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CertificateRecord{}, ErrCertificateNotFound
		}
		return CertificateRecord{}, fmt.Errorf("find certificate by code: %w", err)
	}

	return record, nil
}
