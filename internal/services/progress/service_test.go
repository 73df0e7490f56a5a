package progress

import (
	"context"
	"errors"
	"testing"

	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

type progressStoreStub struct {
	completed map[int64]map[int64]struct{}
}

func newProgressStoreStub() *progressStoreStub {
	return &progressStoreStub{completed: make(map[int64]map[int64]struct{})}
}

func (s *progressStoreStub) MarkCompleted(_ context.Context, userID, lessonID int64) error {
	if s.completed[userID] == nil {
		s.completed[userID] = make(map[int64]struct{})
	}
	s.completed[userID][lessonID] = struct{}{}
	return nil
}

func (s *progressStoreStub) CompletedLessonIDs(_ context.Context, userID int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(s.completed[userID]))
	for id := range s.completed[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

type lessonStoreStub struct {
	lessons map[int64]pgrepo.LessonRecord
}

func (s *lessonStoreStub) FindByID(_ context.Context, id int64) (pgrepo.LessonRecord, error) {
	rec, ok := s.lessons[id]
	if !ok {
		return pgrepo.LessonRecord{}, pgrepo.ErrLessonNotFound
	}
	return rec, nil
}

func (s *lessonStoreStub) ListByCourse(_ context.Context, courseID int64) ([]pgrepo.LessonRecord, error) {
	var out []pgrepo.LessonRecord
	for _, rec := range s.lessons {
		if rec.CourseID == courseID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type enrollmentCheckerStub struct {
	enrolled map[int64]bool
}

func (s *enrollmentCheckerStub) IsEnrolled(_ context.Context, userID, _ int64) (bool, error) {
	return s.enrolled[userID], nil
}

func newTestService() (*Service, *progressStoreStub) {
	store := newProgressStoreStub()
	lessons := &lessonStoreStub{lessons: map[int64]pgrepo.LessonRecord{
		100: {ID: 100, CourseID: 10},
		101: {ID: 101, CourseID: 10},
		102: {ID: 102, CourseID: 10},
		103: {ID: 103, CourseID: 10},
		200: {ID: 200, CourseID: 20},
	}}
	enrollments := &enrollmentCheckerStub{enrolled: map[int64]bool{1: true}}
	return NewService(Dependencies{Progress: store, Lessons: lessons, Enrollments: enrollments}), store
}

func TestMarkLessonCompleteRequiresEnrollment(t *testing.T) {
	svc, store := newTestService()

	if err := svc.MarkLessonComplete(context.Background(), 42, 100); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if len(store.completed) != 0 {
		t.Fatal("nothing may be recorded for a non-enrolled user")
	}

	if err := svc.MarkLessonComplete(context.Background(), 1, 100); err != nil {
		t.Fatalf("enrolled student rejected: %v", err)
	}
}

func TestMarkLessonCompleteUnknownLesson(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.MarkLessonComplete(context.Background(), 1, 999); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	svc, _ := newTestService()

	for i := 0; i < 3; i++ {
		if err := svc.MarkLessonComplete(context.Background(), 1, 100); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	result, err := svc.GetCourseProgress(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if result.CompletedLessons != 1 {
		t.Fatalf("repeats must not inflate progress: %d", result.CompletedLessons)
	}
}

func TestGetCourseProgressPercent(t *testing.T) {
	svc, _ := newTestService()

	for _, lessonID := range []int64{100, 101, 102} {
		if err := svc.MarkLessonComplete(context.Background(), 1, lessonID); err != nil {
			t.Fatalf("mark %d: %v", lessonID, err)
		}
	}

	result, err := svc.GetCourseProgress(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if result.TotalLessons != 4 || result.CompletedLessons != 3 {
		t.Fatalf("unexpected tally: %d/%d", result.CompletedLessons, result.TotalLessons)
	}
	if result.Percent != 75 {
		t.Fatalf("3/4 must be 75, got %d", result.Percent)
	}
}

func TestGetCourseProgressIgnoresOtherCourses(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.MarkLessonComplete(context.Background(), 1, 200); err != nil {
		t.Fatalf("mark: %v", err)
	}

	result, err := svc.GetCourseProgress(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if result.CompletedLessons != 0 || result.Percent != 0 {
		t.Fatalf("foreign lesson leaked into course progress: %+v", result)
	}
}

func TestGetCourseProgressEmptyCourse(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.GetCourseProgress(context.Background(), 1, 77)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if result.TotalLessons != 0 || result.Percent != 0 {
		t.Fatalf("empty course must report zero progress: %+v", result)
	}
}
