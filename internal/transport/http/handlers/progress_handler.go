package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	progresssvc "github.com/onojaonoja2/ekonex/internal/services/progress"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type ProgressHandler struct {
	progress *progresssvc.Service
}

func NewProgressHandler(progress *progresssvc.Service) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func (h *ProgressHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.progress == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	var req dto.ProgressMarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.progress.MarkLessonComplete(r.Context(), identity.UserID, req.LessonID); err != nil {
		switch {
		case errors.Is(err, progresssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid progress payload")
		case errors.Is(err, progresssvc.ErrLessonNotFound):
			writeNotFound(w, "LESSON_NOT_FOUND", "lesson not found")
		case errors.Is(err, progresssvc.ErrNotEnrolled):
			writeForbidden(w, "NOT_ENROLLED", "enrollment required")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record progress")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *ProgressHandler) CourseProgress(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.progress == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	result, err := h.progress.GetCourseProgress(r.Context(), identity.UserID, courseID)
	if err != nil {
		if errors.Is(err, progresssvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid progress request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load progress")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CourseProgressResponse{
		CourseID:         result.CourseID,
		TotalLessons:     result.TotalLessons,
		CompletedLessons: result.CompletedLessons,
		Percent:          result.Percent,
		CompletedIDs:     result.CompletedIDs,
	})
}
