package handlers

import (
	"errors"
	"net/http"

	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	catalogsvc "github.com/onojaonoja2/ekonex/internal/services/catalog"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type CourseHandler struct {
	catalog *catalogsvc.Service
}

func NewCourseHandler(catalog *catalogsvc.Service) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	records, err := h.catalog.ListPublished(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load catalog")
		return
	}

	httperrors.Write(w, http.StatusOK, courseListResponse(records))
}

func (h *CourseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	records, err := h.catalog.ListByInstructor(r.Context(), identity.UserID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, courseListResponse(records))
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	var viewerID int64
	var viewerRole string
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		viewerID, viewerRole = identity.UserID, identity.Role
	}

	detail, err := h.catalog.GetCourseDetail(r.Context(), courseID, viewerID, viewerRole)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	resp := dto.CourseDetailResponse{Course: courseResponse(detail.Course)}
	for _, mod := range detail.Modules {
		moduleResp := dto.ModuleDetailResponse{Module: dto.ModuleResponse{
			ID:       mod.Module.ID,
			CourseID: mod.Module.CourseID,
			Title:    mod.Module.Title,
			Position: mod.Module.Position,
		}}
		for _, lesson := range mod.Lessons {
			moduleResp.Lessons = append(moduleResp.Lessons, lessonResponse(lesson))
		}
		resp.Modules = append(resp.Modules, moduleResp)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CourseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.catalog.CreateCourse(r.Context(), identity.UserID, req.Title, req.Description, req.Price)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, courseResponse(record))
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	var req dto.CourseUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.catalog.UpdateCourse(r.Context(), courseID, identity.UserID, identity.Role,
		req.Title, req.Description, req.Price, req.CoverKey); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	var req dto.CoursePublishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.catalog.SetPublished(r.Context(), courseID, identity.UserID, identity.Role, req.Published); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	if err := h.catalog.DeleteCourse(r.Context(), courseID, identity.UserID, identity.Role); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CourseHandler) AddModule(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	var req dto.ModuleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.catalog.AddModule(r.Context(), courseID, identity.UserID, identity.Role, req.Title, req.Position)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.ModuleResponse{
		ID:       record.ID,
		CourseID: record.CourseID,
		Title:    record.Title,
		Position: record.Position,
	})
}

func (h *CourseHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	var req dto.LessonCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.catalog.AddLesson(r.Context(), courseID, req.ModuleID, identity.UserID, identity.Role,
		req.Title, req.ContentType, req.ContentText, req.VideoKey, req.Position)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, lessonResponse(record))
}

func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	lessonID, ok := urlID(r, "lessonID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid lesson id")
		return
	}

	var req dto.LessonUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.catalog.UpdateLesson(r.Context(), lessonID, identity.UserID, identity.Role,
		req.Title, req.ContentType, req.ContentText, req.VideoKey, req.Position); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, catalogsvc.ErrCourseNotFound):
		writeNotFound(w, "COURSE_NOT_FOUND", "course not found")
	case errors.Is(err, catalogsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not allowed to manage this course")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func courseResponse(record pgrepo.CourseRecord) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           record.ID,
		InstructorID: record.InstructorID,
		Title:        record.Title,
		Description:  record.Description,
		Price:        record.Price,
		IsPublished:  record.IsPublished,
		IsPaused:     record.IsPaused,
		CoverKey:     record.CoverKey,
		CreatedAt:    record.CreatedAt,
	}
}

func courseListResponse(records []pgrepo.CourseRecord) dto.CourseListResponse {
	resp := dto.CourseListResponse{Courses: make([]dto.CourseResponse, 0, len(records))}
	for _, record := range records {
		resp.Courses = append(resp.Courses, courseResponse(record))
	}
	return resp
}

func lessonResponse(record pgrepo.LessonRecord) dto.LessonResponse {
	return dto.LessonResponse{
		ID:          record.ID,
		ModuleID:    record.ModuleID,
		Title:       record.Title,
		ContentType: record.ContentType,
		ContentText: record.ContentText,
		VideoKey:    record.VideoKey,
		Position:    record.Position,
	}
}
