package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	"github.com/onojaonoja2/ekonex/internal/infra/ai"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

const (
	maxQuestionLen   = 2000
	maxContextChunks = 5
	chunkSize        = 1500
	chunkOverlap     = 200
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotEnrolled = errors.New("not enrolled")
	ErrForbidden   = errors.New("forbidden")
	ErrUpstream    = errors.New("tutor upstream error")
)

type EmbeddingStore interface {
	DeleteByLessonIDs(ctx context.Context, lessonIDs []int64) error
	Insert(ctx context.Context, lessonID int64, chunk string, vector []float32) error
	MatchByCourse(ctx context.Context, courseID int64, vector []float32, limit int) ([]pgrepo.EmbeddingMatch, error)
}

type LessonStore interface {
	ListTextByCourse(ctx context.Context, courseID int64) ([]pgrepo.LessonRecord, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (pgrepo.CourseRecord, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
}

type AIClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ChatStream(ctx context.Context, system string, messages []ai.Message, emit func(delta string) error) error
}

type Service struct {
	embeddings    EmbeddingStore
	lessons       LessonStore
	courses       CourseStore
	enrollments   EnrollmentChecker
	client        AIClient
	streamTimeout time.Duration
	logger        *zap.Logger
}

type Dependencies struct {
	Embeddings    EmbeddingStore
	Lessons       LessonStore
	Courses       CourseStore
	Enrollments   EnrollmentChecker
	Client        AIClient
	StreamTimeout time.Duration
	Logger        *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.StreamTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		embeddings:    deps.Embeddings,
		lessons:       deps.Lessons,
		courses:       deps.Courses,
		enrollments:   deps.Enrollments,
		client:        deps.Client,
		streamTimeout: timeout,
		logger:        logger,
	}
}

// Chat answers a course question grounded on the closest lesson chunks and
// streams the reply through emit. The whole exchange is capped by the
// stream timeout.
func (s *Service) Chat(ctx context.Context, userID, courseID int64, question string, emit func(delta string) error) error {
	question = strings.TrimSpace(question)
	if userID <= 0 || courseID <= 0 || question == "" || len(question) > maxQuestionLen {
		return ErrValidation
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}

	ctx, cancel := context.WithTimeout(ctx, s.streamTimeout)
	defer cancel()

	vector, err := s.client.Embed(ctx, question)
	if err != nil {
		return fmt.Errorf("%w: embed question: %v", ErrUpstream, err)
	}

	matches, err := s.embeddings.MatchByCourse(ctx, courseID, vector, maxContextChunks)
	if err != nil {
		return fmt.Errorf("match lesson chunks: %w", err)
	}

	system := buildSystemPrompt(matches)
	messages := []ai.Message{{Role: "user", Content: question}}

	if err := s.client.ChatStream(ctx, system, messages, emit); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return nil
}

// ReindexCourse rebuilds the embedding index for a course's text lessons.
// Only the owning instructor or an admin may run it. Chunks that fail to
// embed abort the reindex so a partial index never silently replaces a
// full one.
func (s *Service) ReindexCourse(ctx context.Context, actorID int64, actorRole string, courseID int64) (int, error) {
	if actorID <= 0 || courseID <= 0 {
		return 0, ErrValidation
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return 0, ErrValidation
		}
		return 0, fmt.Errorf("find course: %w", err)
	}
	if !enums.Role(actorRole).IsAdmin() && course.InstructorID != actorID {
		return 0, ErrForbidden
	}

	lessons, err := s.lessons.ListTextByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("list text lessons: %w", err)
	}
	if len(lessons) == 0 {
		return 0, nil
	}

	lessonIDs := make([]int64, 0, len(lessons))
	for _, lesson := range lessons {
		lessonIDs = append(lessonIDs, lesson.ID)
	}
	if err := s.embeddings.DeleteByLessonIDs(ctx, lessonIDs); err != nil {
		return 0, fmt.Errorf("clear old embeddings: %w", err)
	}

	indexed := 0
	for _, lesson := range lessons {
		for _, chunk := range splitChunks(lesson.ContentText) {
			vector, err := s.client.Embed(ctx, chunk)
			if err != nil {
				return indexed, fmt.Errorf("%w: embed chunk: %v", ErrUpstream, err)
			}
			if err := s.embeddings.Insert(ctx, lesson.ID, chunk, vector); err != nil {
				return indexed, fmt.Errorf("store embedding: %w", err)
			}
			indexed++
		}
	}

	s.logger.Info("course reindexed",
		zap.Int64("course_id", courseID),
		zap.Int("lessons", len(lessons)),
		zap.Int("chunks", indexed))

	return indexed, nil
}

func buildSystemPrompt(matches []pgrepo.EmbeddingMatch) string {
	var b strings.Builder
	b.WriteString("You are a course tutor. Answer using only the course material below. ")
	b.WriteString("If the material does not cover the question, say so.\n")
	for i, match := range matches {
		fmt.Fprintf(&b, "\n--- Excerpt %d ---\n%s\n", i+1, match.Chunk)
	}
	return b.String()
}

// splitChunks cuts lesson text into overlapping windows so a sentence near
// a boundary still lands whole in at least one chunk. Windows are measured
// in runes, a byte cut could split a multibyte character.
func splitChunks(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{string(runes)}
	}

	var chunks []string
	step := chunkSize - chunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
