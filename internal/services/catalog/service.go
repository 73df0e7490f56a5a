package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
	redisrepo "github.com/onojaonoja2/ekonex/internal/repo/redis"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrCourseNotFound = errors.New("course not found")
	ErrForbidden      = errors.New("forbidden")
)

type CourseStore interface {
	Create(ctx context.Context, instructorID int64, title, description string, price int64) (pgrepo.CourseRecord, error)
	FindByID(ctx context.Context, id int64) (pgrepo.CourseRecord, error)
	ListPublished(ctx context.Context) ([]pgrepo.CourseRecord, error)
	ListByInstructor(ctx context.Context, instructorID int64) ([]pgrepo.CourseRecord, error)
	ListAll(ctx context.Context) ([]pgrepo.CourseRecord, error)
	Update(ctx context.Context, id int64, title, description string, price int64, coverKey string) error
	SetPublished(ctx context.Context, id int64, published bool) error
	SetPaused(ctx context.Context, id int64, paused bool) error
	Delete(ctx context.Context, id int64) error
	CreateModule(ctx context.Context, courseID int64, title string, position int) (pgrepo.ModuleRecord, error)
	ListModules(ctx context.Context, courseID int64) ([]pgrepo.ModuleRecord, error)
}

type LessonStore interface {
	Create(ctx context.Context, moduleID int64, title, contentType, contentText, videoKey string, position int) (pgrepo.LessonRecord, error)
	Update(ctx context.Context, id int64, title, contentType, contentText, videoKey string, position int) error
	FindByID(ctx context.Context, id int64) (pgrepo.LessonRecord, error)
	ListByCourse(ctx context.Context, courseID int64) ([]pgrepo.LessonRecord, error)
	Delete(ctx context.Context, id int64) error
}

type Cache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, payload []byte) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	courses CourseStore
	lessons LessonStore
	cache   Cache
	logger  *zap.Logger
}

type Dependencies struct {
	Courses CourseStore
	Lessons LessonStore
	Cache   Cache
	Logger  *zap.Logger
}

type CourseDetail struct {
	Course  pgrepo.CourseRecord
	Modules []ModuleDetail
}

type ModuleDetail struct {
	Module  pgrepo.ModuleRecord
	Lessons []pgrepo.LessonRecord
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		courses: deps.Courses,
		lessons: deps.Lessons,
		cache:   deps.Cache,
		logger:  logger,
	}
}

func (s *Service) CreateCourse(ctx context.Context, instructorID int64, title, description string, price int64) (pgrepo.CourseRecord, error) {
	if instructorID <= 0 || strings.TrimSpace(title) == "" || price < 0 {
		return pgrepo.CourseRecord{}, ErrValidation
	}

	record, err := s.courses.Create(ctx, instructorID, title, description, price)
	if err != nil {
		return pgrepo.CourseRecord{}, fmt.Errorf("create course: %w", err)
	}

	return record, nil
}

// ListPublished serves the public catalog, backed by a short redis cache.
// Cache failures fall through to postgres.
func (s *Service) ListPublished(ctx context.Context) ([]pgrepo.CourseRecord, error) {
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx); err == nil {
			var cached []pgrepo.CourseRecord
			if unmarshalErr := json.Unmarshal(payload, &cached); unmarshalErr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redisrepo.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	records, err := s.courses.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}

	if s.cache != nil && len(records) > 0 {
		if payload, marshalErr := json.Marshal(records); marshalErr == nil {
			if err := s.cache.Set(ctx, payload); err != nil {
				s.logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}

	return records, nil
}

func (s *Service) ListByInstructor(ctx context.Context, instructorID int64) ([]pgrepo.CourseRecord, error) {
	if instructorID <= 0 {
		return nil, ErrValidation
	}
	records, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return records, nil
}

func (s *Service) ListAll(ctx context.Context) ([]pgrepo.CourseRecord, error) {
	records, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return records, nil
}

// GetCourse returns a course visible to the caller. Unpublished and paused
// courses are only visible to their instructor and admins.
func (s *Service) GetCourse(ctx context.Context, courseID, viewerID int64, viewerRole string) (pgrepo.CourseRecord, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return pgrepo.CourseRecord{}, err
	}

	if !course.IsPublished || course.IsPaused {
		if !s.canManage(course, viewerID, viewerRole) {
			return pgrepo.CourseRecord{}, ErrCourseNotFound
		}
	}

	return course, nil
}

func (s *Service) GetCourseDetail(ctx context.Context, courseID, viewerID int64, viewerRole string) (CourseDetail, error) {
	course, err := s.GetCourse(ctx, courseID, viewerID, viewerRole)
	if err != nil {
		return CourseDetail{}, err
	}

	modules, err := s.courses.ListModules(ctx, course.ID)
	if err != nil {
		return CourseDetail{}, fmt.Errorf("list modules: %w", err)
	}

	lessons, err := s.lessons.ListByCourse(ctx, course.ID)
	if err != nil {
		return CourseDetail{}, fmt.Errorf("list lessons: %w", err)
	}

	byModule := make(map[int64][]pgrepo.LessonRecord, len(modules))
	for _, lesson := range lessons {
		byModule[lesson.ModuleID] = append(byModule[lesson.ModuleID], lesson)
	}

	detail := CourseDetail{Course: course}
	for _, mod := range modules {
		detail.Modules = append(detail.Modules, ModuleDetail{
			Module:  mod,
			Lessons: byModule[mod.ID],
		})
	}

	return detail, nil
}

func (s *Service) UpdateCourse(ctx context.Context, courseID, actorID int64, actorRole, title, description string, price int64, coverKey string) error {
	if strings.TrimSpace(title) == "" || price < 0 {
		return ErrValidation
	}

	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !s.canManage(course, actorID, actorRole) {
		return ErrForbidden
	}

	if err := s.courses.Update(ctx, courseID, strings.TrimSpace(title), description, price, coverKey); err != nil {
		return fmt.Errorf("update course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) SetPublished(ctx context.Context, courseID, actorID int64, actorRole string, published bool) error {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !s.canManage(course, actorID, actorRole) {
		return ErrForbidden
	}

	if err := s.courses.SetPublished(ctx, courseID, published); err != nil {
		return fmt.Errorf("set course published: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// SetPaused is an admin moderation switch, instructors cannot pause their
// own courses.
func (s *Service) SetPaused(ctx context.Context, courseID int64, actorRole string, paused bool) error {
	if !enums.Role(actorRole).IsAdmin() {
		return ErrForbidden
	}

	if err := s.courses.SetPaused(ctx, courseID, paused); err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("set course paused: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) DeleteCourse(ctx context.Context, courseID, actorID int64, actorRole string) error {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !s.canManage(course, actorID, actorRole) {
		return ErrForbidden
	}

	if err := s.courses.Delete(ctx, courseID); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) AddModule(ctx context.Context, courseID, actorID int64, actorRole, title string, position int) (pgrepo.ModuleRecord, error) {
	if strings.TrimSpace(title) == "" {
		return pgrepo.ModuleRecord{}, ErrValidation
	}

	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return pgrepo.ModuleRecord{}, err
	}
	if !s.canManage(course, actorID, actorRole) {
		return pgrepo.ModuleRecord{}, ErrForbidden
	}

	record, err := s.courses.CreateModule(ctx, courseID, title, position)
	if err != nil {
		return pgrepo.ModuleRecord{}, fmt.Errorf("create module: %w", err)
	}

	return record, nil
}

func (s *Service) AddLesson(ctx context.Context, courseID, moduleID, actorID int64, actorRole, title, contentType, contentText, videoKey string, position int) (pgrepo.LessonRecord, error) {
	if strings.TrimSpace(title) == "" {
		return pgrepo.LessonRecord{}, ErrValidation
	}
	switch enums.ContentType(contentType) {
	case enums.ContentTypeText, enums.ContentTypeVideo:
	default:
		return pgrepo.LessonRecord{}, ErrValidation
	}

	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return pgrepo.LessonRecord{}, err
	}
	if !s.canManage(course, actorID, actorRole) {
		return pgrepo.LessonRecord{}, ErrForbidden
	}

	modules, err := s.courses.ListModules(ctx, courseID)
	if err != nil {
		return pgrepo.LessonRecord{}, fmt.Errorf("list modules: %w", err)
	}
	found := false
	for _, mod := range modules {
		if mod.ID == moduleID {
			found = true
			break
		}
	}
	if !found {
		return pgrepo.LessonRecord{}, ErrValidation
	}

	record, err := s.lessons.Create(ctx, moduleID, title, contentType, contentText, videoKey, position)
	if err != nil {
		return pgrepo.LessonRecord{}, fmt.Errorf("create lesson: %w", err)
	}

	return record, nil
}

func (s *Service) UpdateLesson(ctx context.Context, lessonID, actorID int64, actorRole, title, contentType, contentText, videoKey string, position int) error {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrLessonNotFound) {
			return ErrValidation
		}
		return fmt.Errorf("find lesson: %w", err)
	}

	course, err := s.findCourse(ctx, lesson.CourseID)
	if err != nil {
		return err
	}
	if !s.canManage(course, actorID, actorRole) {
		return ErrForbidden
	}

	if err := s.lessons.Update(ctx, lessonID, title, contentType, contentText, videoKey, position); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	return nil
}

func (s *Service) findCourse(ctx context.Context, courseID int64) (pgrepo.CourseRecord, error) {
	if courseID <= 0 {
		return pgrepo.CourseRecord{}, ErrValidation
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return pgrepo.CourseRecord{}, ErrCourseNotFound
		}
		return pgrepo.CourseRecord{}, fmt.Errorf("find course: %w", err)
	}

	return course, nil
}

func (s *Service) canManage(course pgrepo.CourseRecord, actorID int64, actorRole string) bool {
	if enums.Role(actorRole).IsAdmin() {
		return true
	}
	return actorRole == string(enums.RoleInstructor) && course.InstructorID == actorID
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
