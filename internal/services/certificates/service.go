package certificates

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotEligible = errors.New("course not completed")
	ErrNotFound    = errors.New("certificate not found")
	ErrNotEnrolled = errors.New("not enrolled")
	ErrEmptyCourse = errors.New("course has no lessons")
)

type CertificateStore interface {
	Create(ctx context.Context, userID, courseID int64, code string) (pgrepo.CertificateRecord, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID int64) (pgrepo.CertificateRecord, error)
	FindByCode(ctx context.Context, code string) (pgrepo.CertificateRecord, error)
}

type LessonStore interface {
	ListByCourse(ctx context.Context, courseID int64) ([]pgrepo.LessonRecord, error)
}

type ProgressStore interface {
	CompletedLessonIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
}

type Service struct {
	certificates CertificateStore
	lessons      LessonStore
	progress     ProgressStore
	enrollments  EnrollmentChecker
	now          func() time.Time
}

type Dependencies struct {
	Certificates CertificateStore
	Lessons      LessonStore
	Progress     ProgressStore
	Enrollments  EnrollmentChecker
}

func NewService(deps Dependencies) *Service {
	return &Service{
		certificates: deps.Certificates,
		lessons:      deps.Lessons,
		progress:     deps.Progress,
		enrollments:  deps.Enrollments,
		now:          time.Now,
	}
}

// IssueIfComplete issues the course certificate once every lesson is
// completed. Issuing is exactly-once per (user, course): a concurrent or
// repeated call returns the already stored certificate.
func (s *Service) IssueIfComplete(ctx context.Context, userID, courseID int64) (pgrepo.CertificateRecord, error) {
	if userID <= 0 || courseID <= 0 {
		return pgrepo.CertificateRecord{}, ErrValidation
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return pgrepo.CertificateRecord{}, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return pgrepo.CertificateRecord{}, ErrNotEnrolled
	}

	if existing, err := s.certificates.FindByUserAndCourse(ctx, userID, courseID); err == nil {
		return existing, nil
	} else if !errors.Is(err, pgrepo.ErrCertificateNotFound) {
		return pgrepo.CertificateRecord{}, fmt.Errorf("find certificate: %w", err)
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return pgrepo.CertificateRecord{}, fmt.Errorf("list course lessons: %w", err)
	}
	// A course without lessons has nothing to complete and earns nothing.
	if len(lessons) == 0 {
		return pgrepo.CertificateRecord{}, ErrEmptyCourse
	}

	completed, err := s.progress.CompletedLessonIDs(ctx, userID)
	if err != nil {
		return pgrepo.CertificateRecord{}, fmt.Errorf("list completed lessons: %w", err)
	}
	for _, lesson := range lessons {
		if _, ok := completed[lesson.ID]; !ok {
			return pgrepo.CertificateRecord{}, ErrNotEligible
		}
	}

	code, err := s.newCode()
	if err != nil {
		return pgrepo.CertificateRecord{}, fmt.Errorf("generate certificate code: %w", err)
	}

	record, err := s.certificates.Create(ctx, userID, courseID, code)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCertificateExists) {
			return s.certificates.FindByUserAndCourse(ctx, userID, courseID)
		}
		return pgrepo.CertificateRecord{}, fmt.Errorf("create certificate: %w", err)
	}

	return record, nil
}

func (s *Service) GetForUser(ctx context.Context, userID, courseID int64) (pgrepo.CertificateRecord, error) {
	if userID <= 0 || courseID <= 0 {
		return pgrepo.CertificateRecord{}, ErrValidation
	}

	record, err := s.certificates.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCertificateNotFound) {
			return pgrepo.CertificateRecord{}, ErrNotFound
		}
		return pgrepo.CertificateRecord{}, fmt.Errorf("find certificate: %w", err)
	}

	return record, nil
}

// VerifyCode is the public verification lookup, keyed by the printed code.
func (s *Service) VerifyCode(ctx context.Context, code string) (pgrepo.CertificateRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return pgrepo.CertificateRecord{}, ErrValidation
	}

	record, err := s.certificates.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCertificateNotFound) {
			return pgrepo.CertificateRecord{}, ErrNotFound
		}
		return pgrepo.CertificateRecord{}, fmt.Errorf("find certificate by code: %w", err)
	}

	return record, nil
}

// newCode builds codes shaped like CERT-K9X2M4-LNWQ83, a random part plus
// a timestamp part, both base36.
func (s *Service) newCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}

	random := strconv.FormatUint(binary.BigEndian.Uint64(buf[:])%0x7FFFFFFFFFFF, 36)
	stamp := strconv.FormatInt(s.now().UnixMilli(), 36)

	return "CERT-" + strings.ToUpper(random) + "-" + strings.ToUpper(stamp), nil
}
