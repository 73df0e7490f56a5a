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
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

type QuizRecord struct {
	ID           int64
	CourseID     int64
	Title        string
	PassingScore int
}

type QuestionRecord struct {
	ID       int64
	QuizID   int64
	Text     string
	Position int
	Answers  []AnswerRecord
}

type AnswerRecord struct {
	ID         int64
	QuestionID int64
	Text       string
	IsCorrect  bool
}

type AttemptRecord struct {
	ID        int64
	QuizID    int64
	UserID    int64
	Score     int
	Passed    bool
	CreatedAt time.Time
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) Create(ctx context.Context, courseID int64, title string, passingScore int) (QuizRecord, error) {
	if r.pool == nil {
		return QuizRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if courseID <= 0 || strings.TrimSpace(title) == "" || passingScore < 0 || passingScore > 100 {
		return QuizRecord{}, fmt.Errorf("invalid quiz payload")
	}

	var record QuizRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO quizzes (course_id, title, passing_score)
VALUES ($1, $2, $3)
RETURNING id, course_id, title, passing_score
`, courseID, strings.TrimSpace(title), passingScore).Scan(&record.ID, &record.CourseID, &record.Title, &record.PassingScore)
	if err != nil {
		return QuizRecord{}, fmt.Errorf("create quiz: %w", err)
	}

	return record, nil
}

func (r *QuizRepo) FindByID(ctx context.Context, id int64) (QuizRecord, error) {
	if r.pool == nil {
		return QuizRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return QuizRecord{}, fmt.Errorf("invalid quiz id")
	}

	var record QuizRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, course_id, title, passing_score
FROM quizzes
WHERE id = $1
LIMIT 1
`, id).Scan(&record.ID, &record.CourseID, &record.Title, &record.PassingScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuizRecord{}, ErrQuizNotFound
		}
		return QuizRecord{}, fmt.Errorf("find quiz: %w", err)
	}

	return record, nil
}

func (r *QuizRepo) ListByCourse(ctx context.Context, courseID int64) ([]QuizRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, course_id, title, passing_score
FROM quizzes
WHERE course_id = $1
ORDER BY id
`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var records []QuizRecord
	for rows.Next() {
		var record QuizRecord
		if err := rows.Scan(&record.ID, &record.CourseID, &record.Title, &record.PassingScore); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}

	return records, nil
}

func (r *QuizRepo) CreateQuestion(ctx context.Context, quizID int64, text string, position int, answers []AnswerRecord) (QuestionRecord, error) {
	if r.pool == nil {
		return QuestionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if quizID <= 0 || strings.TrimSpace(text) == "" || len(answers) == 0 {
		return QuestionRecord{}, fmt.Errorf("invalid question payload")
	}

	var record QuestionRecord
	err := WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
INSERT INTO quiz_questions (quiz_id, text, position)
VALUES ($1, $2, $3)
RETURNING id, quiz_id, text, position
`, quizID, strings.TrimSpace(text), position).Scan(&record.ID, &record.QuizID, &record.Text, &record.Position); err != nil {
			return fmt.Errorf("create question: %w", err)
		}

		for _, answer := range answers {
			var stored AnswerRecord
			if err := tx.QueryRow(ctx, `
INSERT INTO quiz_answers (question_id, text, is_correct)
VALUES ($1, $2, $3)
RETURNING id, question_id, text, is_correct
`, record.ID, answer.Text, answer.IsCorrect).Scan(&stored.ID, &stored.QuestionID, &stored.Text, &stored.IsCorrect); err != nil {
				return fmt.Errorf("create answer: %w", err)
			}
			record.Answers = append(record.Answers, stored)
		}

		return nil
	})
	if err != nil {
		return QuestionRecord{}, err
	}

	return record, nil
}

func (r *QuizRepo) FindQuestion(ctx context.Context, id int64) (QuestionRecord, error) {
	if r.pool == nil {
		return QuestionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return QuestionRecord{}, fmt.Errorf("invalid question id")
	}

	var record QuestionRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, quiz_id, text, position
FROM quiz_questions
WHERE id = $1
LIMIT 1
`, id).Scan(&record.ID, &record.QuizID, &record.Text, &record.Position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuestionRecord{}, ErrQuestionNotFound
		}
		return QuestionRecord{}, fmt.Errorf("find question: %w", err)
	}

	return record, nil
}

// UpdateQuestion rewrites a question and replaces its answer set in one
// transaction.
func (r *QuizRepo) UpdateQuestion(ctx context.Context, id int64, text string, position int, answers []AnswerRecord) (QuestionRecord, error) {
	if r.pool == nil {
		return QuestionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 || strings.TrimSpace(text) == "" || len(answers) == 0 {
		return QuestionRecord{}, fmt.Errorf("invalid question payload")
	}

	var record QuestionRecord
	err := WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
UPDATE quiz_questions
SET text = $2, position = $3
WHERE id = $1
RETURNING id, quiz_id, text, position
`, id, strings.TrimSpace(text), position).Scan(&record.ID, &record.QuizID, &record.Text, &record.Position); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("update question: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM quiz_answers WHERE question_id = $1`, id); err != nil {
			return fmt.Errorf("clear answers: %w", err)
		}

		for _, answer := range answers {
			var stored AnswerRecord
			if err := tx.QueryRow(ctx, `
INSERT INTO quiz_answers (question_id, text, is_correct)
VALUES ($1, $2, $3)
RETURNING id, question_id, text, is_correct
`, id, answer.Text, answer.IsCorrect).Scan(&stored.ID, &stored.QuestionID, &stored.Text, &stored.IsCorrect); err != nil {
				return fmt.Errorf("create answer: %w", err)
			}
			record.Answers = append(record.Answers, stored)
		}

		return nil
	})
	if err != nil {
		return QuestionRecord{}, err
	}

	return record, nil
}

func (r *QuizRepo) DeleteQuestion(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return fmt.Errorf("invalid question id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}

	return nil
}

// ListQuestions returns the quiz questions with their answers attached, in
// position order.
func (r *QuizRepo) ListQuestions(ctx context.Context, quizID int64) ([]QuestionRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, quiz_id, text, position
FROM quiz_questions
WHERE quiz_id = $1
ORDER BY position, id
`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []QuestionRecord
	byID := make(map[int64]int)
	for rows.Next() {
		var question QuestionRecord
		if err := rows.Scan(&question.ID, &question.QuizID, &question.Text, &question.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		byID[question.ID] = len(questions)
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	answerRows, err := r.pool.Query(ctx, `
SELECT a.id, a.question_id, a.text, a.is_correct
FROM quiz_answers a
JOIN quiz_questions q ON q.id = a.question_id
WHERE q.quiz_id = $1
ORDER BY a.id
`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var answer AnswerRecord
		if err := answerRows.Scan(&answer.ID, &answer.QuestionID, &answer.Text, &answer.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if idx, ok := byID[answer.QuestionID]; ok {
			questions[idx].Answers = append(questions[idx].Answers, answer)
		}
	}
	if err := answerRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	return questions, nil
}

func (r *QuizRepo) CreateAttempt(ctx context.Context, quizID, userID int64, score int, passed bool) (AttemptRecord, error) {
	if r.pool == nil {
		return AttemptRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if quizID <= 0 || userID <= 0 {
		return AttemptRecord{}, fmt.Errorf("invalid attempt payload")
	}

	var record AttemptRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO quiz_attempts (quiz_id, user_id, score, passed, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, quiz_id, user_id, score, passed, created_at
`, quizID, userID, score, passed).Scan(&record.ID, &record.QuizID, &record.UserID, &record.Score, &record.Passed, &record.CreatedAt)
	if err != nil {
		return AttemptRecord{}, fmt.Errorf("create attempt: %w", err)
	}

	return record, nil
}

func (r *QuizRepo) ListAttempts(ctx context.Context, quizID, userID int64) ([]AttemptRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, quiz_id, user_id, score, passed, created_at
FROM quiz_attempts
WHERE quiz_id = $1 AND user_id = $2
ORDER BY created_at DESC
`, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var records []AttemptRecord
	for rows.Next() {
		var record AttemptRecord
		if err := rows.Scan(&record.ID, &record.QuizID, &record.UserID, &record.Score, &record.Passed, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return records, nil
}
