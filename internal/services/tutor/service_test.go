package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	"github.com/onojaonoja2/ekonex/internal/infra/ai"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

type embeddingStoreStub struct {
	matches  []pgrepo.EmbeddingMatch
	inserted []string
	deleted  []int64
}

func (s *embeddingStoreStub) DeleteByLessonIDs(_ context.Context, lessonIDs []int64) error {
	s.deleted = append(s.deleted, lessonIDs...)
	return nil
}

func (s *embeddingStoreStub) Insert(_ context.Context, _ int64, chunk string, _ []float32) error {
	s.inserted = append(s.inserted, chunk)
	return nil
}

func (s *embeddingStoreStub) MatchByCourse(_ context.Context, _ int64, _ []float32, limit int) ([]pgrepo.EmbeddingMatch, error) {
	if len(s.matches) > limit {
		return s.matches[:limit], nil
	}
	return s.matches, nil
}

type lessonStoreStub struct {
	lessons []pgrepo.LessonRecord
}

func (s *lessonStoreStub) ListTextByCourse(_ context.Context, _ int64) ([]pgrepo.LessonRecord, error) {
	return s.lessons, nil
}

type courseStoreStub struct {
	courses map[int64]pgrepo.CourseRecord
}

func (s *courseStoreStub) FindByID(_ context.Context, id int64) (pgrepo.CourseRecord, error) {
	rec, ok := s.courses[id]
	if !ok {
		return pgrepo.CourseRecord{}, pgrepo.ErrCourseNotFound
	}
	return rec, nil
}

type enrollmentCheckerStub struct {
	enrolled map[int64]bool
}

func (s *enrollmentCheckerStub) IsEnrolled(_ context.Context, userID, _ int64) (bool, error) {
	return s.enrolled[userID], nil
}

type aiClientStub struct {
	embedCalls int
	embedErr   error
	chatErr    error
	lastSystem string
	deltas     []string
}

func (s *aiClientStub) Embed(_ context.Context, _ string) ([]float32, error) {
	s.embedCalls++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *aiClientStub) ChatStream(_ context.Context, system string, _ []ai.Message, emit func(delta string) error) error {
	s.lastSystem = system
	if s.chatErr != nil {
		return s.chatErr
	}
	for _, delta := range s.deltas {
		if err := emit(delta); err != nil {
			return err
		}
	}
	return nil
}

type fixture struct {
	svc        *Service
	embeddings *embeddingStoreStub
	client     *aiClientStub
}

func newFixture(lessons ...pgrepo.LessonRecord) *fixture {
	embeddings := &embeddingStoreStub{}
	client := &aiClientStub{deltas: []string{"Hello", " there"}}
	courses := &courseStoreStub{courses: map[int64]pgrepo.CourseRecord{
		10: {ID: 10, InstructorID: 2, Title: "Go from scratch", IsPublished: true},
	}}
	svc := NewService(Dependencies{
		Embeddings:  embeddings,
		Lessons:     &lessonStoreStub{lessons: lessons},
		Courses:     courses,
		Enrollments: &enrollmentCheckerStub{enrolled: map[int64]bool{1: true}},
		Client:      client,
	})
	return &fixture{svc: svc, embeddings: embeddings, client: client}
}

func TestChatRequiresEnrollment(t *testing.T) {
	f := newFixture()

	err := f.svc.Chat(context.Background(), 42, 10, "what is a monad?", func(string) error { return nil })
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if f.client.embedCalls != 0 {
		t.Fatal("must not call the model for a non-enrolled user")
	}
}

func TestChatRejectsBadQuestions(t *testing.T) {
	f := newFixture()

	for _, question := range []string{"", "   ", strings.Repeat("x", maxQuestionLen+1)} {
		err := f.svc.Chat(context.Background(), 1, 10, question, func(string) error { return nil })
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("question %q: expected ErrValidation, got %v", question, err)
		}
	}
}

func TestChatStreamsGroundedAnswer(t *testing.T) {
	f := newFixture()
	f.embeddings.matches = []pgrepo.EmbeddingMatch{
		{LessonID: 100, Chunk: "A monad is a monoid in the category of endofunctors."},
	}

	var got strings.Builder
	err := f.svc.Chat(context.Background(), 1, 10, "what is a monad?", func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if got.String() != "Hello there" {
		t.Fatalf("unexpected streamed answer: %q", got.String())
	}
	if !strings.Contains(f.client.lastSystem, "monoid in the category") {
		t.Fatalf("system prompt must carry the matched excerpt: %q", f.client.lastSystem)
	}
}

func TestChatWrapsUpstreamErrors(t *testing.T) {
	f := newFixture()
	f.client.embedErr = errors.New("rate limited")

	err := f.svc.Chat(context.Background(), 1, 10, "question", func(string) error { return nil })
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	f.client.embedErr = nil
	f.client.chatErr = errors.New("model unavailable")
	err = f.svc.Chat(context.Background(), 1, 10, "question", func(string) error { return nil })
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestReindexCourseReplacesOldChunks(t *testing.T) {
	f := newFixture(
		pgrepo.LessonRecord{ID: 100, ContentText: "short lesson"},
		pgrepo.LessonRecord{ID: 101, ContentText: strings.Repeat("a", chunkSize+1)},
	)

	indexed, err := f.svc.ReindexCourse(context.Background(), 2, string(enums.RoleInstructor), 10)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}

	if len(f.embeddings.deleted) != 2 {
		t.Fatalf("old embeddings for both lessons must be cleared, got %v", f.embeddings.deleted)
	}
	if indexed != 3 || len(f.embeddings.inserted) != 3 {
		t.Fatalf("expected 3 chunks (1 + 2), got indexed=%d inserted=%d", indexed, len(f.embeddings.inserted))
	}
}

func TestReindexCourseEmptyCourse(t *testing.T) {
	f := newFixture()

	indexed, err := f.svc.ReindexCourse(context.Background(), 2, string(enums.RoleInstructor), 10)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if indexed != 0 || len(f.embeddings.deleted) != 0 {
		t.Fatal("empty course must be a no-op")
	}
}

func TestReindexCourseRequiresCourseManager(t *testing.T) {
	f := newFixture(pgrepo.LessonRecord{ID: 100, ContentText: "short lesson"})

	if _, err := f.svc.ReindexCourse(context.Background(), 9, string(enums.RoleInstructor), 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign instructor: expected ErrForbidden, got %v", err)
	}
	if len(f.embeddings.deleted) != 0 || f.client.embedCalls != 0 {
		t.Fatal("forbidden reindex must not touch the index")
	}

	if _, err := f.svc.ReindexCourse(context.Background(), 9, string(enums.RoleSubAdmin), 10); err != nil {
		t.Fatalf("admin reindex: %v", err)
	}

	if _, err := f.svc.ReindexCourse(context.Background(), 2, string(enums.RoleInstructor), 99); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown course: expected ErrValidation, got %v", err)
	}
}

func TestSplitChunksOverlap(t *testing.T) {
	if got := splitChunks(""); got != nil {
		t.Fatalf("empty text must yield no chunks, got %v", got)
	}
	if got := splitChunks("  hi  "); len(got) != 1 || got[0] != "hi" {
		t.Fatalf("short text must be one trimmed chunk, got %v", got)
	}

	text := strings.Repeat("x", chunkSize*2)
	chunks := splitChunks(text)
	if len(chunks) < 2 {
		t.Fatalf("long text must split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > chunkSize {
			t.Fatalf("chunk %d exceeds the window: %d", i, len(chunk))
		}
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total <= len(text) {
		t.Fatal("overlapping windows must cover boundary text twice")
	}
}

func TestSplitChunksKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("é", chunkSize*2)
	chunks := splitChunks(text)
	if len(chunks) < 2 {
		t.Fatalf("long text must split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid utf-8", i)
		}
		if utf8.RuneCountInString(chunk) > chunkSize {
			t.Fatalf("chunk %d exceeds the window: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
}
