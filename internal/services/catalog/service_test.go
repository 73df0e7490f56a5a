package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
	redisrepo "github.com/onojaonoja2/ekonex/internal/repo/redis"
)

type courseStoreStub struct {
	nextID    int64
	courses   map[int64]pgrepo.CourseRecord
	modules   map[int64][]pgrepo.ModuleRecord
	listCalls int
}

func newCourseStoreStub() *courseStoreStub {
	return &courseStoreStub{
		nextID:  1,
		courses: make(map[int64]pgrepo.CourseRecord),
		modules: make(map[int64][]pgrepo.ModuleRecord),
	}
}

func (s *courseStoreStub) Create(_ context.Context, instructorID int64, title, description string, price int64) (pgrepo.CourseRecord, error) {
	rec := pgrepo.CourseRecord{
		ID:           s.nextID,
		InstructorID: instructorID,
		Title:        title,
		Description:  description,
		Price:        price,
	}
	s.nextID++
	s.courses[rec.ID] = rec
	return rec, nil
}

func (s *courseStoreStub) FindByID(_ context.Context, id int64) (pgrepo.CourseRecord, error) {
	rec, ok := s.courses[id]
	if !ok {
		return pgrepo.CourseRecord{}, pgrepo.ErrCourseNotFound
	}
	return rec, nil
}

func (s *courseStoreStub) ListPublished(_ context.Context) ([]pgrepo.CourseRecord, error) {
	s.listCalls++
	var out []pgrepo.CourseRecord
	for _, rec := range s.courses {
		if rec.IsPublished && !rec.IsPaused {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *courseStoreStub) ListByInstructor(_ context.Context, instructorID int64) ([]pgrepo.CourseRecord, error) {
	var out []pgrepo.CourseRecord
	for _, rec := range s.courses {
		if rec.InstructorID == instructorID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *courseStoreStub) ListAll(_ context.Context) ([]pgrepo.CourseRecord, error) {
	var out []pgrepo.CourseRecord
	for _, rec := range s.courses {
		out = append(out, rec)
	}
	return out, nil
}

func (s *courseStoreStub) Update(_ context.Context, id int64, title, description string, price int64, coverKey string) error {
	rec, ok := s.courses[id]
	if !ok {
		return pgrepo.ErrCourseNotFound
	}
	rec.Title = title
	rec.Description = description
	rec.Price = price
	rec.CoverKey = coverKey
	s.courses[id] = rec
	return nil
}

func (s *courseStoreStub) SetPublished(_ context.Context, id int64, published bool) error {
	rec, ok := s.courses[id]
	if !ok {
		return pgrepo.ErrCourseNotFound
	}
	rec.IsPublished = published
	s.courses[id] = rec
	return nil
}

func (s *courseStoreStub) SetPaused(_ context.Context, id int64, paused bool) error {
	rec, ok := s.courses[id]
	if !ok {
		return pgrepo.ErrCourseNotFound
	}
	rec.IsPaused = paused
	s.courses[id] = rec
	return nil
}

func (s *courseStoreStub) Delete(_ context.Context, id int64) error {
	delete(s.courses, id)
	return nil
}

func (s *courseStoreStub) CreateModule(_ context.Context, courseID int64, title string, position int) (pgrepo.ModuleRecord, error) {
	rec := pgrepo.ModuleRecord{ID: s.nextID, CourseID: courseID, Title: title, Position: position}
	s.nextID++
	s.modules[courseID] = append(s.modules[courseID], rec)
	return rec, nil
}

func (s *courseStoreStub) ListModules(_ context.Context, courseID int64) ([]pgrepo.ModuleRecord, error) {
	return s.modules[courseID], nil
}

type lessonStoreStub struct {
	nextID  int64
	lessons map[int64]pgrepo.LessonRecord
}

func newLessonStoreStub() *lessonStoreStub {
	return &lessonStoreStub{nextID: 1000, lessons: make(map[int64]pgrepo.LessonRecord)}
}

func (s *lessonStoreStub) Create(_ context.Context, moduleID int64, title, contentType, contentText, videoKey string, position int) (pgrepo.LessonRecord, error) {
	rec := pgrepo.LessonRecord{
		ID:          s.nextID,
		ModuleID:    moduleID,
		Title:       title,
		ContentType: contentType,
		ContentText: contentText,
		VideoKey:    videoKey,
		Position:    position,
	}
	s.nextID++
	s.lessons[rec.ID] = rec
	return rec, nil
}

func (s *lessonStoreStub) Update(_ context.Context, id int64, title, contentType, contentText, videoKey string, position int) error {
	rec, ok := s.lessons[id]
	if !ok {
		return pgrepo.ErrLessonNotFound
	}
	rec.Title = title
	rec.ContentType = contentType
	rec.ContentText = contentText
	rec.VideoKey = videoKey
	rec.Position = position
	s.lessons[id] = rec
	return nil
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

func (s *lessonStoreStub) Delete(_ context.Context, id int64) error {
	delete(s.lessons, id)
	return nil
}

type cacheStub struct {
	payload     []byte
	getErr      error
	setCalls    int
	invalidated int
}

func (s *cacheStub) Get(_ context.Context) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.payload == nil {
		return nil, redisrepo.ErrCacheMiss
	}
	return s.payload, nil
}

func (s *cacheStub) Set(_ context.Context, payload []byte) error {
	s.setCalls++
	s.payload = payload
	return nil
}

func (s *cacheStub) Invalidate(_ context.Context) error {
	s.invalidated++
	s.payload = nil
	return nil
}

type fixture struct {
	svc     *Service
	courses *courseStoreStub
	lessons *lessonStoreStub
	cache   *cacheStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	courses := newCourseStoreStub()
	lessons := newLessonStoreStub()
	cache := &cacheStub{}
	svc := NewService(Dependencies{Courses: courses, Lessons: lessons, Cache: cache})
	return &fixture{svc: svc, courses: courses, lessons: lessons, cache: cache}
}

func (f *fixture) publishedCourse(t *testing.T, instructorID int64) pgrepo.CourseRecord {
	t.Helper()
	course, err := f.svc.CreateCourse(context.Background(), instructorID, "Go Basics", "intro", 0)
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if err := f.svc.SetPublished(context.Background(), course.ID, instructorID, string(enums.RoleInstructor), true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return f.courses.courses[course.ID]
}

func TestListPublishedUsesCacheOnSecondRead(t *testing.T) {
	f := newFixture(t)
	f.publishedCourse(t, 2)

	first, err := f.svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one course, got %d", len(first))
	}
	if f.cache.setCalls != 1 {
		t.Fatalf("catalog must be cached after a miss, setCalls=%d", f.cache.setCalls)
	}

	second, err := f.svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("cached read returned %d courses", len(second))
	}
	if f.courses.listCalls != 1 {
		t.Fatalf("second read must be served from cache, store hit %d times", f.courses.listCalls)
	}
}

func TestListPublishedFallsThroughOnCacheFailure(t *testing.T) {
	f := newFixture(t)
	f.publishedCourse(t, 2)
	f.cache.getErr = errors.New("redis down")

	records, err := f.svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("cache failure must fall through to the store, got %d", len(records))
	}
}

func TestListPublishedIgnoresCorruptCachePayload(t *testing.T) {
	f := newFixture(t)
	f.publishedCourse(t, 2)
	f.cache.payload = []byte("{not json")

	records, err := f.svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("corrupt cache must fall through, got %d", len(records))
	}
}

func TestGetCourseHidesDraftsFromStrangers(t *testing.T) {
	f := newFixture(t)
	course, err := f.svc.CreateCourse(context.Background(), 2, "Draft", "", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.GetCourse(context.Background(), course.ID, 0, ""); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("anonymous viewer: expected ErrCourseNotFound, got %v", err)
	}
	if _, err := f.svc.GetCourse(context.Background(), course.ID, 99, string(enums.RoleStudent)); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("student viewer: expected ErrCourseNotFound, got %v", err)
	}
	if _, err := f.svc.GetCourse(context.Background(), course.ID, 2, string(enums.RoleInstructor)); err != nil {
		t.Fatalf("owner must see own draft: %v", err)
	}
	if _, err := f.svc.GetCourse(context.Background(), course.ID, 1, string(enums.RoleSubAdmin)); err != nil {
		t.Fatalf("admin must see drafts: %v", err)
	}
}

func TestGetCourseHidesPausedCourses(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)

	if err := f.svc.SetPaused(context.Background(), course.ID, string(enums.RoleSystemAdmin), true); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := f.svc.GetCourse(context.Background(), course.ID, 99, string(enums.RoleStudent)); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound for paused course, got %v", err)
	}
	if _, err := f.svc.GetCourse(context.Background(), course.ID, 2, string(enums.RoleInstructor)); err != nil {
		t.Fatalf("owner must still see a paused course: %v", err)
	}
}

func TestSetPausedIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)

	if err := f.svc.SetPaused(context.Background(), course.ID, string(enums.RoleInstructor), true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("instructor pause: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.SetPaused(context.Background(), course.ID, string(enums.RoleSubAdmin), true); err != nil {
		t.Fatalf("admin pause: %v", err)
	}
}

func TestUpdateCourseRejectsForeignInstructor(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)

	err := f.svc.UpdateCourse(context.Background(), course.ID, 99, string(enums.RoleInstructor), "Hijacked", "", 0, "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if f.courses.courses[course.ID].Title != "Go Basics" {
		t.Fatal("foreign update must not land")
	}
}

func TestCatalogWritesInvalidateCache(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)
	before := f.cache.invalidated

	if err := f.svc.UpdateCourse(context.Background(), course.ID, 2, string(enums.RoleInstructor), "Go Basics v2", "", 100, ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.cache.invalidated != before+1 {
		t.Fatalf("update must invalidate the catalog cache, got %d", f.cache.invalidated)
	}
}

func TestAddLessonValidatesContentTypeAndModule(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)
	module, err := f.svc.AddModule(context.Background(), course.ID, 2, string(enums.RoleInstructor), "Week 1", 0)
	if err != nil {
		t.Fatalf("add module: %v", err)
	}

	_, err = f.svc.AddLesson(context.Background(), course.ID, module.ID, 2, string(enums.RoleInstructor), "Intro", "podcast", "", "", 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("bad content type: expected ErrValidation, got %v", err)
	}

	_, err = f.svc.AddLesson(context.Background(), course.ID, 999, 2, string(enums.RoleInstructor), "Intro", string(enums.ContentTypeText), "hello", "", 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("foreign module: expected ErrValidation, got %v", err)
	}

	if _, err := f.svc.AddLesson(context.Background(), course.ID, module.ID, 2, string(enums.RoleInstructor), "Intro", string(enums.ContentTypeText), "hello", "", 0); err != nil {
		t.Fatalf("valid lesson rejected: %v", err)
	}
}

func TestGetCourseDetailGroupsLessonsByModule(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)

	first, err := f.svc.AddModule(context.Background(), course.ID, 2, string(enums.RoleInstructor), "Week 1", 0)
	if err != nil {
		t.Fatalf("add module: %v", err)
	}
	second, err := f.svc.AddModule(context.Background(), course.ID, 2, string(enums.RoleInstructor), "Week 2", 1)
	if err != nil {
		t.Fatalf("add module: %v", err)
	}

	for _, moduleID := range []int64{first.ID, first.ID, second.ID} {
		lesson, err := f.svc.AddLesson(context.Background(), course.ID, moduleID, 2, string(enums.RoleInstructor), "Lesson", string(enums.ContentTypeText), "text", "", 0)
		if err != nil {
			t.Fatalf("add lesson: %v", err)
		}
		rec := f.lessons.lessons[lesson.ID]
		rec.CourseID = course.ID
		f.lessons.lessons[lesson.ID] = rec
	}

	detail, err := f.svc.GetCourseDetail(context.Background(), course.ID, 2, string(enums.RoleInstructor))
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(detail.Modules))
	}

	counts := map[int64]int{}
	for _, mod := range detail.Modules {
		counts[mod.Module.ID] = len(mod.Lessons)
	}
	if counts[first.ID] != 2 || counts[second.ID] != 1 {
		t.Fatalf("unexpected grouping: %v", counts)
	}
}
