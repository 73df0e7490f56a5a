package handlers

import (
	"errors"
	"net/http"
	"strconv"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	notifysvc "github.com/onojaonoja2/ekonex/internal/services/notifications"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type NotificationHandler struct {
	notifications *notifysvc.Service
}

func NewNotificationHandler(notifications *notifysvc.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.notifications == nil {
		writeInternal(w, "NOTIFICATIONS_SERVICE_UNAVAILABLE", "notifications service is unavailable")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.notifications.List(r.Context(), identity.UserID, limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list notifications")
		return
	}

	resp := dto.NotificationListResponse{Notifications: make([]dto.NotificationResponse, 0, len(records))}
	for _, record := range records {
		resp.Notifications = append(resp.Notifications, dto.NotificationResponse{
			ID:        record.ID,
			Type:      record.Type,
			Message:   record.Message,
			IsRead:    record.IsRead,
			CreatedAt: record.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.notifications == nil {
		writeInternal(w, "NOTIFICATIONS_SERVICE_UNAVAILABLE", "notifications service is unavailable")
		return
	}

	notificationID, ok := urlID(r, "notificationID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), notificationID, identity.UserID); err != nil {
		switch {
		case errors.Is(err, notifysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid notification request")
		case errors.Is(err, notifysvc.ErrNotFound):
			writeNotFound(w, "NOTIFICATION_NOT_FOUND", "notification not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to mark notification read")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.notifications == nil {
		writeInternal(w, "NOTIFICATIONS_SERVICE_UNAVAILABLE", "notifications service is unavailable")
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), identity.UserID); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to mark notifications read")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}
