package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLessonNotFound = errors.New("lesson not found")

type LessonRepo struct {
	pool *pgxpool.Pool
}

type LessonRecord struct {
	ID          int64
	ModuleID    int64
	CourseID    int64
	Title       string
	ContentType string
	ContentText string
	VideoKey    string
	Position    int
}

func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

func (r *LessonRepo) Create(ctx context.Context, moduleID int64, title, contentType, contentText, videoKey string, position int) (LessonRecord, error) {
	if r.pool == nil {
		return LessonRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if moduleID <= 0 || strings.TrimSpace(title) == "" {
		return LessonRecord{}, fmt.Errorf("invalid lesson payload")
	}

	record, err := scanLesson(r.pool.QueryRow(ctx, `
INSERT INTO lessons (module_id, title, content_type, content_text, video_key, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, module_id,
	(SELECT course_id FROM modules WHERE modules.id = lessons.module_id),
	title, content_type, content_text, video_key, position
`, moduleID, strings.TrimSpace(title), contentType, contentText, videoKey, position))
	if err != nil {
		return LessonRecord{}, fmt.Errorf("create lesson: %w", err)
	}

	return record, nil
}

func (r *LessonRepo) Update(ctx context.Context, id int64, title, contentType, contentText, videoKey string, position int) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE lessons
SET title = $2, content_type = $3, content_text = $4, video_key = $5, position = $6
WHERE id = $1
`, id, title, contentType, contentText, videoKey, position)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLessonNotFound
	}

	return nil
}

func (r *LessonRepo) FindByID(ctx context.Context, id int64) (LessonRecord, error) {
	if r.pool == nil {
		return LessonRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return LessonRecord{}, fmt.Errorf("invalid lesson id")
	}

	record, err := scanLesson(r.pool.QueryRow(ctx, `
SELECT l.id, l.module_id, m.course_id, l.title, l.content_type, l.content_text, l.video_key, l.position
FROM lessons l
JOIN modules m ON m.id = l.module_id
WHERE l.id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LessonRecord{}, ErrLessonNotFound
		}
		return LessonRecord{}, fmt.Errorf("find lesson: %w", err)
	}

	return record, nil
}

// ListByCourse returns every lesson of a course through its modules, in
// module/lesson position order.
func (r *LessonRepo) ListByCourse(ctx context.Context, courseID int64) ([]LessonRecord, error) {
	return r.list(ctx, `
SELECT l.id, l.module_id, m.course_id, l.title, l.content_type, l.content_text, l.video_key, l.position
FROM lessons l
JOIN modules m ON m.id = l.module_id
WHERE m.course_id = $1
ORDER BY m.position, l.position, l.id
`, courseID)
}

// ListTextByCourse returns only text lessons with non-empty content, the
// input set for embedding reindexing.
func (r *LessonRepo) ListTextByCourse(ctx context.Context, courseID int64) ([]LessonRecord, error) {
	return r.list(ctx, `
SELECT l.id, l.module_id, m.course_id, l.title, l.content_type, l.content_text, l.video_key, l.position
FROM lessons l
JOIN modules m ON m.id = l.module_id
WHERE m.course_id = $1
  AND l.content_type = 'text'
  AND l.content_text <> ''
ORDER BY m.position, l.position, l.id
`, courseID)
}

func (r *LessonRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLessonNotFound
	}

	return nil
}

func (r *LessonRepo) list(ctx context.Context, query string, args ...any) ([]LessonRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var records []LessonRecord
	for rows.Next() {
		record, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return records, nil
}

func scanLesson(row pgx.Row) (LessonRecord, error) {
	var record LessonRecord
	if err := row.Scan(
		&record.ID,
		&record.ModuleID,
		&record.CourseID,
		&record.Title,
		&record.ContentType,
		&record.ContentText,
		&record.VideoKey,
		&record.Position,
	); err != nil {
		return LessonRecord{}, err
	}
	return record, nil
}
