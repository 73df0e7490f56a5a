package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	certsvc "github.com/onojaonoja2/ekonex/internal/services/certificates"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type CertificateHandler struct {
	certificates *certsvc.Service
}

func NewCertificateHandler(certificates *certsvc.Service) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Claim issues the certificate for a completed course, or returns the one
// already issued.
func (h *CertificateHandler) Claim(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.certificates == nil {
		writeInternal(w, "CERTIFICATES_SERVICE_UNAVAILABLE", "certificates service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	record, err := h.certificates.IssueIfComplete(r.Context(), identity.UserID, courseID)
	if err != nil {
		handleCertificateError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CertificateResponse{
		Code:     record.Code,
		CourseID: record.CourseID,
		UserID:   record.UserID,
		IssuedAt: record.IssuedAt,
	})
}

func (h *CertificateHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.certificates == nil {
		writeInternal(w, "CERTIFICATES_SERVICE_UNAVAILABLE", "certificates service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	record, err := h.certificates.GetForUser(r.Context(), identity.UserID, courseID)
	if err != nil {
		handleCertificateError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CertificateResponse{
		Code:     record.Code,
		CourseID: record.CourseID,
		UserID:   record.UserID,
		IssuedAt: record.IssuedAt,
	})
}

// Verify is the public lookup by printed code, no authentication needed.
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.certificates == nil {
		writeInternal(w, "CERTIFICATES_SERVICE_UNAVAILABLE", "certificates service is unavailable")
		return
	}

	record, err := h.certificates.VerifyCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		handleCertificateError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CertificateResponse{
		Code:     record.Code,
		CourseID: record.CourseID,
		UserID:   record.UserID,
		IssuedAt: record.IssuedAt,
	})
}

func handleCertificateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, certsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, certsvc.ErrNotFound):
		writeNotFound(w, "CERTIFICATE_NOT_FOUND", "certificate not found")
	case errors.Is(err, certsvc.ErrNotEnrolled):
		writeForbidden(w, "NOT_ENROLLED", "enrollment required")
	case errors.Is(err, certsvc.ErrEmptyCourse):
		writeBadRequest(w, "EMPTY_COURSE", "course has no lessons to complete")
	case errors.Is(err, certsvc.ErrNotEligible):
		writeBadRequest(w, "COURSE_NOT_COMPLETED", "complete all lessons first")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
