package enrollments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrCourseNotFound = errors.New("course not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotFree        = errors.New("course is not free")
	ErrNotEnrolled    = errors.New("not enrolled")
	ErrForbidden      = errors.New("forbidden")
)

type EnrollmentStore interface {
	Create(ctx context.Context, userID, courseID int64) (pgrepo.EnrollmentRecord, error)
	Find(ctx context.Context, userID, courseID int64) (pgrepo.EnrollmentRecord, error)
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]pgrepo.EnrollmentRecord, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (pgrepo.CourseRecord, error)
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
}

type Service struct {
	enrollments EnrollmentStore
	courses     CourseStore
	users       UserStore
}

type Dependencies struct {
	Enrollments EnrollmentStore
	Courses     CourseStore
	Users       UserStore
}

func NewService(deps Dependencies) *Service {
	return &Service{
		enrollments: deps.Enrollments,
		courses:     deps.Courses,
		users:       deps.Users,
	}
}

// Grant records an enrollment, collapsing the duplicate-key race into a
// success. Returns created=false when the row already existed. Any number
// of concurrent grants for the same (user, course) leave exactly one row.
func (s *Service) Grant(ctx context.Context, userID, courseID int64) (pgrepo.EnrollmentRecord, bool, error) {
	if userID <= 0 || courseID <= 0 {
		return pgrepo.EnrollmentRecord{}, false, ErrValidation
	}

	record, err := s.enrollments.Create(ctx, userID, courseID)
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgrepo.ErrAlreadyEnrolled) {
		return pgrepo.EnrollmentRecord{}, false, fmt.Errorf("create enrollment: %w", err)
	}

	existing, findErr := s.enrollments.Find(ctx, userID, courseID)
	if findErr != nil {
		return pgrepo.EnrollmentRecord{}, false, fmt.Errorf("find existing enrollment: %w", findErr)
	}

	return existing, false, nil
}

// EnrollFree is the direct enrollment path for zero-price courses. Paid
// courses must go through checkout.
func (s *Service) EnrollFree(ctx context.Context, userID, courseID int64) (pgrepo.EnrollmentRecord, error) {
	if userID <= 0 || courseID <= 0 {
		return pgrepo.EnrollmentRecord{}, ErrValidation
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return pgrepo.EnrollmentRecord{}, ErrCourseNotFound
		}
		return pgrepo.EnrollmentRecord{}, fmt.Errorf("find course: %w", err)
	}
	if !course.IsPublished || course.IsPaused {
		return pgrepo.EnrollmentRecord{}, ErrCourseNotFound
	}
	if course.Price > 0 {
		return pgrepo.EnrollmentRecord{}, ErrNotFree
	}

	record, _, err := s.Grant(ctx, userID, courseID)
	return record, err
}

// AdminEnroll grants course access to a user looked up by email, bypassing
// the price check. Duplicate grants collapse like any other Grant.
func (s *Service) AdminEnroll(ctx context.Context, actorRole, email string, courseID int64) (pgrepo.EnrollmentRecord, bool, error) {
	if !enums.Role(actorRole).IsAdmin() {
		return pgrepo.EnrollmentRecord{}, false, ErrForbidden
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || courseID <= 0 {
		return pgrepo.EnrollmentRecord{}, false, ErrValidation
	}
	if s.users == nil {
		return pgrepo.EnrollmentRecord{}, false, fmt.Errorf("user store is unavailable")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return pgrepo.EnrollmentRecord{}, false, ErrUserNotFound
		}
		return pgrepo.EnrollmentRecord{}, false, fmt.Errorf("find user: %w", err)
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return pgrepo.EnrollmentRecord{}, false, ErrCourseNotFound
		}
		return pgrepo.EnrollmentRecord{}, false, fmt.Errorf("find course: %w", err)
	}

	return s.Grant(ctx, user.ID, courseID)
}

func (s *Service) IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error) {
	if userID <= 0 || courseID <= 0 {
		return false, ErrValidation
	}

	enrolled, err := s.enrollments.Exists(ctx, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

func (s *Service) RequireEnrollment(ctx context.Context, userID, courseID int64) error {
	enrolled, err := s.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]pgrepo.EnrollmentRecord, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}

	records, err := s.enrollments.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return records, nil
}
