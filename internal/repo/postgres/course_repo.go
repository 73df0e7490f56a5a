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

var ErrCourseNotFound = errors.New("course not found")

type CourseRepo struct {
	pool *pgxpool.Pool
}

type CourseRecord struct {
	ID           int64
	InstructorID int64
	Title        string
	Description  string
	Price        int64
	IsPublished  bool
	IsPaused     bool
	CoverKey     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ModuleRecord struct {
	ID       int64
	CourseID int64
	Title    string
	Position int
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) Create(ctx context.Context, instructorID int64, title, description string, price int64) (CourseRecord, error) {
	if r.pool == nil {
		return CourseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if instructorID <= 0 || strings.TrimSpace(title) == "" || price < 0 {
		return CourseRecord{}, fmt.Errorf("invalid course create payload")
	}

	record, err := scanCourse(r.pool.QueryRow(ctx, `
INSERT INTO courses (instructor_id, title, description, price, is_published, is_paused, cover_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, FALSE, '', NOW(), NOW())
RETURNING id, instructor_id, title, description, price, is_published, is_paused, cover_key, created_at, updated_at
`, instructorID, strings.TrimSpace(title), description, price))
	if err != nil {
		return CourseRecord{}, fmt.Errorf("create course: %w", err)
	}

	return record, nil
}

func (r *CourseRepo) FindByID(ctx context.Context, id int64) (CourseRecord, error) {
	if r.pool == nil {
		return CourseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return CourseRecord{}, fmt.Errorf("invalid course id")
	}

	record, err := scanCourse(r.pool.QueryRow(ctx, `
SELECT id, instructor_id, title, description, price, is_published, is_paused, cover_key, created_at, updated_at
FROM courses
WHERE id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CourseRecord{}, ErrCourseNotFound
		}
		return CourseRecord{}, fmt.Errorf("find course: %w", err)
	}

	return record, nil
}

func (r *CourseRepo) ListPublished(ctx context.Context) ([]CourseRecord, error) {
	return r.list(ctx, `
SELECT id, instructor_id, title, description, price, is_published, is_paused, cover_key, created_at, updated_at
FROM courses
WHERE is_published = TRUE AND is_paused = FALSE
ORDER BY created_at DESC
`)
}

func (r *CourseRepo) ListByInstructor(ctx context.Context, instructorID int64) ([]CourseRecord, error) {
	if instructorID <= 0 {
		return nil, fmt.Errorf("invalid instructor id")
	}
	return r.list(ctx, `
SELECT id, instructor_id, title, description, price, is_published, is_paused, cover_key, created_at, updated_at
FROM courses
WHERE instructor_id = $1
ORDER BY created_at DESC
`, instructorID)
}

func (r *CourseRepo) ListAll(ctx context.Context) ([]CourseRecord, error) {
	return r.list(ctx, `
SELECT id, instructor_id, title, description, price, is_published, is_paused, cover_key, created_at, updated_at
FROM courses
ORDER BY created_at DESC
`)
}

func (r *CourseRepo) Update(ctx context.Context, id int64, title, description string, price int64, coverKey string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE courses
SET title = $2, description = $3, price = $4, cover_key = $5, updated_at = NOW()
WHERE id = $1
`, id, title, description, price, coverKey)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) SetPublished(ctx context.Context, id int64, published bool) error {
	return r.setFlag(ctx, id, "is_published", published)
}

func (r *CourseRepo) SetPaused(ctx context.Context, id int64, paused bool) error {
	return r.setFlag(ctx, id, "is_paused", paused)
}

func (r *CourseRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) CreateModule(ctx context.Context, courseID int64, title string, position int) (ModuleRecord, error) {
	if r.pool == nil {
		return ModuleRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if courseID <= 0 || strings.TrimSpace(title) == "" {
		return ModuleRecord{}, fmt.Errorf("invalid module payload")
	}

	var record ModuleRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO modules (course_id, title, position)
VALUES ($1, $2, $3)
RETURNING id, course_id, title, position
`, courseID, strings.TrimSpace(title), position).Scan(&record.ID, &record.CourseID, &record.Title, &record.Position)
	if err != nil {
		return ModuleRecord{}, fmt.Errorf("create module: %w", err)
	}

	return record, nil
}

func (r *CourseRepo) ListModules(ctx context.Context, courseID int64) ([]ModuleRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, course_id, title, position
FROM modules
WHERE course_id = $1
ORDER BY position, id
`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var records []ModuleRecord
	for rows.Next() {
		var record ModuleRecord
		if err := rows.Scan(&record.ID, &record.CourseID, &record.Title, &record.Position); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}

	return records, nil
}

func (r *CourseRepo) setFlag(ctx context.Context, id int64, column string, value bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	var query string
	switch column {
	case "is_published":
		query = `UPDATE courses SET is_published = $2, updated_at = NOW() WHERE id = $1`
	case "is_paused":
		query = `UPDATE courses SET is_paused = $2, updated_at = NOW() WHERE id = $1`
	default:
		return fmt.Errorf("unsupported course column %q", column)
	}

	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update course %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) list(ctx context.Context, query string, args ...any) ([]CourseRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var records []CourseRecord
	for rows.Next() {
		record, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return records, nil
}

func scanCourse(row pgx.Row) (CourseRecord, error) {
	var record CourseRecord
	if err := row.Scan(
		&record.ID,
		&record.InstructorID,
		&record.Title,
		&record.Description,
		&record.Price,
		&record.IsPublished,
		&record.IsPaused,
		&record.CoverKey,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return CourseRecord{}, err
	}
	return record, nil
}
