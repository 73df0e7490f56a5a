package handlers

import (
	"errors"
	"net/http"

	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	userssvc "github.com/onojaonoja2/ekonex/internal/services/users"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type ProfileHandler struct {
	users *userssvc.Service
}

func NewProfileHandler(users *userssvc.Service) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	record, err := h.users.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(record))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	var req dto.ProfileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.users.UpdateProfile(r.Context(), identity.UserID, req.FullName, req.Website, req.AvatarKey)
	if err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(record))
}

func handleUsersError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, userssvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, userssvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not allowed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func profileResponse(record pgrepo.UserRecord) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:        record.ID,
		Email:     record.Email,
		FullName:  record.FullName,
		Role:      record.Role,
		Status:    record.Status,
		Website:   record.Website,
		AvatarKey: record.AvatarKey,
		CreatedAt: record.CreatedAt,
	}
}
