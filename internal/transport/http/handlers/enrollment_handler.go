package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	enrollsvc "github.com/onojaonoja2/ekonex/internal/services/enrollments"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type EnrollmentHandler struct {
	enrollments *enrollsvc.Service
}

func NewEnrollmentHandler(enrollments *enrollsvc.Service) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// EnrollFree handles direct enrollment into zero-price courses.
func (h *EnrollmentHandler) EnrollFree(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.enrollments == nil {
		writeInternal(w, "ENROLLMENTS_SERVICE_UNAVAILABLE", "enrollments service is unavailable")
		return
	}

	var req dto.EnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.enrollments.EnrollFree(r.Context(), identity.UserID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, enrollsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid enroll payload")
		case errors.Is(err, enrollsvc.ErrCourseNotFound):
			writeNotFound(w, "COURSE_NOT_FOUND", "course not found")
		case errors.Is(err, enrollsvc.ErrNotFree):
			writeBadRequest(w, "PAID_COURSE", "paid courses require checkout")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to enroll")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.EnrollmentResponse{
		CourseID:   record.CourseID,
		EnrolledAt: record.EnrolledAt,
	})
}

func (h *EnrollmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.enrollments == nil {
		writeInternal(w, "ENROLLMENTS_SERVICE_UNAVAILABLE", "enrollments service is unavailable")
		return
	}

	records, err := h.enrollments.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list enrollments")
		return
	}

	resp := dto.EnrollmentListResponse{Enrollments: make([]dto.EnrollmentResponse, 0, len(records))}
	for _, record := range records {
		resp.Enrollments = append(resp.Enrollments, dto.EnrollmentResponse{
			CourseID:   record.CourseID,
			EnrolledAt: record.EnrolledAt,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}
