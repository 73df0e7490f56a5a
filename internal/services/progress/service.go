package progress

import (
	"context"
	"errors"
	"fmt"

	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNotEnrolled    = errors.New("not enrolled")
)

type ProgressStore interface {
	MarkCompleted(ctx context.Context, userID, lessonID int64) error
	CompletedLessonIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

type LessonStore interface {
	FindByID(ctx context.Context, id int64) (pgrepo.LessonRecord, error)
	ListByCourse(ctx context.Context, courseID int64) ([]pgrepo.LessonRecord, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
}

type Service struct {
	progress    ProgressStore
	lessons     LessonStore
	enrollments EnrollmentChecker
}

type Dependencies struct {
	Progress    ProgressStore
	Lessons     LessonStore
	Enrollments EnrollmentChecker
}

type CourseProgress struct {
	CourseID         int64
	TotalLessons     int
	CompletedLessons int
	Percent          int
	CompletedIDs     []int64
}

func NewService(deps Dependencies) *Service {
	return &Service{
		progress:    deps.Progress,
		lessons:     deps.Lessons,
		enrollments: deps.Enrollments,
	}
}

// MarkLessonComplete records completion for an enrolled student. The
// operation is an upsert, repeating it is harmless.
func (s *Service) MarkLessonComplete(ctx context.Context, userID, lessonID int64) error {
	if userID <= 0 || lessonID <= 0 {
		return ErrValidation
	}

	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrLessonNotFound) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("find lesson: %w", err)
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, lesson.CourseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}

	if err := s.progress.MarkCompleted(ctx, userID, lessonID); err != nil {
		return fmt.Errorf("mark lesson completed: %w", err)
	}

	return nil
}

// GetCourseProgress reports how far a student is through a course. The
// percentage is computed from the live lesson list, so lessons added after
// enrollment lower it.
func (s *Service) GetCourseProgress(ctx context.Context, userID, courseID int64) (CourseProgress, error) {
	if userID <= 0 || courseID <= 0 {
		return CourseProgress{}, ErrValidation
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return CourseProgress{}, fmt.Errorf("list course lessons: %w", err)
	}

	completed, err := s.progress.CompletedLessonIDs(ctx, userID)
	if err != nil {
		return CourseProgress{}, fmt.Errorf("list completed lessons: %w", err)
	}

	result := CourseProgress{
		CourseID:     courseID,
		TotalLessons: len(lessons),
	}
	for _, lesson := range lessons {
		if _, ok := completed[lesson.ID]; ok {
			result.CompletedLessons++
			result.CompletedIDs = append(result.CompletedIDs, lesson.ID)
		}
	}
	if result.TotalLessons > 0 {
		result.Percent = result.CompletedLessons * 100 / result.TotalLessons
	}

	return result, nil
}
