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
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

type UserRecord struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	Status       string
	Website      string
	AvatarKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, email, passwordHash, fullName, role string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || passwordHash == "" {
		return UserRecord{}, fmt.Errorf("invalid user create payload")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (email, password_hash, full_name, role, status, website, avatar_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'active', '', '', NOW(), NOW())
RETURNING id, email, password_hash, full_name, role, status, website, avatar_key, created_at, updated_at
`, email, passwordHash, fullName, role))
	if err != nil {
		if isUniqueViolation(err) {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return record, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return UserRecord{}, fmt.Errorf("invalid user id")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
SELECT id, email, password_hash, full_name, role, status, website, avatar_key, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by id: %w", err)
	}

	return record, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return UserRecord{}, fmt.Errorf("email is required")
	}

	record, err := scanUser(r.pool.QueryRow(ctx, `
SELECT id, email, password_hash, full_name, role, status, website, avatar_key, created_at, updated_at
FROM users
WHERE email = $1
LIMIT 1
`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by email: %w", err)
	}

	return record, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, fullName, website, avatarKey string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return fmt.Errorf("invalid user id")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET full_name = $2, website = $3, avatar_key = $4, updated_at = NOW()
WHERE id = $1
`, id, fullName, website, avatarKey)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	return r.updateField(ctx, id, "role", role)
}

func (r *UserRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.updateField(ctx, id, "status", status)
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return fmt.Errorf("invalid user id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]UserRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, email, password_hash, full_name, role, status, website, avatar_key, created_at, updated_at
FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var records []UserRecord
	for rows.Next() {
		record, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return records, nil
}

func (r *UserRepo) updateField(ctx context.Context, id int64, column, value string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return fmt.Errorf("invalid user id")
	}

	var query string
	switch column {
	case "role":
		query = `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	case "status":
		query = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	default:
		return fmt.Errorf("unsupported user column %q", column)
	}

	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var record UserRecord
	if err := row.Scan(
		&record.ID,
		&record.Email,
		&record.PasswordHash,
		&record.FullName,
		&record.Role,
		&record.Status,
		&record.Website,
		&record.AvatarKey,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return UserRecord{}, err
	}
	return record, nil
}

func scanUserRows(rows pgx.Rows) (UserRecord, error) {
	record, err := scanUser(rows)
	if err != nil {
		return UserRecord{}, fmt.Errorf("scan user: %w", err)
	}
	return record, nil
}
