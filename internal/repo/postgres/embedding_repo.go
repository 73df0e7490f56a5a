package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EmbeddingRepo struct {
	pool *pgxpool.Pool
}

type EmbeddingMatch struct {
	LessonID int64
	Chunk    string
	Distance float64
}

func NewEmbeddingRepo(pool *pgxpool.Pool) *EmbeddingRepo {
	return &EmbeddingRepo{pool: pool}
}

// DeleteByLessonIDs clears stored chunks before a reindex rewrites them.
func (r *EmbeddingRepo) DeleteByLessonIDs(ctx context.Context, lessonIDs []int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if len(lessonIDs) == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx, `DELETE FROM lesson_embeddings WHERE lesson_id = ANY($1)`, lessonIDs)
	if err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}

	return nil
}

func (r *EmbeddingRepo) Insert(ctx context.Context, lessonID int64, chunk string, vector []float32) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if lessonID <= 0 || chunk == "" || len(vector) == 0 {
		return fmt.Errorf("invalid embedding payload")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO lesson_embeddings (lesson_id, chunk, embedding)
VALUES ($1, $2, $3::vector)
`, lessonID, chunk, encodeVector(vector))
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}

	return nil
}

// MatchByCourse returns the closest chunks to the query vector among the
// course's lessons, using cosine distance.
func (r *EmbeddingRepo) MatchByCourse(ctx context.Context, courseID int64, vector []float32, limit int) ([]EmbeddingMatch, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	rows, err := r.pool.Query(ctx, `
SELECT e.lesson_id, e.chunk, e.embedding <=> $2::vector AS distance
FROM lesson_embeddings e
JOIN lessons l ON l.id = e.lesson_id
JOIN modules m ON m.id = l.module_id
WHERE m.course_id = $1
ORDER BY distance
LIMIT $3
`, courseID, encodeVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("match embeddings: %w", err)
	}
	defer rows.Close()

	var matches []EmbeddingMatch
	for rows.Next() {
		var match EmbeddingMatch
		if err := rows.Scan(&match.LessonID, &match.Chunk, &match.Distance); err != nil {
			return nil, fmt.Errorf("scan embedding match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding matches: %w", err)
	}

	return matches, nil
}

// encodeVector renders the pgvector text literal, "[0.1,0.2,...]".
func encodeVector(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
