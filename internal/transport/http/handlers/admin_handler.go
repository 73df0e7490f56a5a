package handlers

import (
	"errors"
	"net/http"
	"strconv"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	catalogsvc "github.com/onojaonoja2/ekonex/internal/services/catalog"
	enrollsvc "github.com/onojaonoja2/ekonex/internal/services/enrollments"
	userssvc "github.com/onojaonoja2/ekonex/internal/services/users"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type AdminHandler struct {
	users       *userssvc.Service
	catalog     *catalogsvc.Service
	enrollments *enrollsvc.Service
}

func NewAdminHandler(users *userssvc.Service, catalog *catalogsvc.Service, enrollments *enrollsvc.Service) *AdminHandler {
	return &AdminHandler{users: users, catalog: catalog, enrollments: enrollments}
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	var req dto.AdminCreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.users.AdminCreate(r.Context(), identity.Role, req.Email, req.Password, req.FullName, req.Role)
	if err != nil {
		if errors.Is(err, userssvc.ErrEmailTaken) {
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "EMAIL_TAKEN",
				Message: "email already registered",
			})
			return
		}
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, profileResponse(record))
}

// EnrollUser grants course access to an account by email, used for manual
// comps and support cases.
func (h *AdminHandler) EnrollUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.enrollments == nil {
		writeInternal(w, "ENROLLMENTS_SERVICE_UNAVAILABLE", "enrollments service is unavailable")
		return
	}

	var req dto.AdminEnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, created, err := h.enrollments.AdminEnroll(r.Context(), identity.Role, req.Email, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, enrollsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid enroll payload")
		case errors.Is(err, enrollsvc.ErrForbidden):
			writeForbidden(w, "FORBIDDEN", "not allowed")
		case errors.Is(err, enrollsvc.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, enrollsvc.ErrCourseNotFound):
			writeNotFound(w, "COURSE_NOT_FOUND", "course not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to enroll user")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminEnrollResponse{
		UserID:   record.UserID,
		CourseID: record.CourseID,
		Created:  created,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.users.List(r.Context(), identity.Role, limit, offset)
	if err != nil {
		handleUsersError(w, err)
		return
	}

	resp := dto.AdminUserListResponse{Users: make([]dto.ProfileResponse, 0, len(records))}
	for _, record := range records {
		resp.Users = append(resp.Users, profileResponse(record))
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	userID, ok := urlID(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	var req dto.AdminRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.users.ChangeRole(r.Context(), identity.Role, userID, req.Role); err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	userID, ok := urlID(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	if err := h.users.Suspend(r.Context(), identity.Role, userID); err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) Reinstate(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	userID, ok := urlID(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	if err := h.users.Reinstate(r.Context(), identity.Role, userID); err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	userID, ok := urlID(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), identity.Role, userID); err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	records, err := h.catalog.ListAll(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list courses")
		return
	}

	httperrors.Write(w, http.StatusOK, courseListResponse(records))
}

// PauseCourse is the moderation switch that hides a course from the
// catalog without touching its publish flag.
func (h *AdminHandler) PauseCourse(w http.ResponseWriter, r *http.Request) {
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

	var req dto.CoursePauseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.catalog.SetPaused(r.Context(), courseID, identity.Role, req.Paused); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}
