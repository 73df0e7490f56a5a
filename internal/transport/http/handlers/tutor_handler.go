package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	tutorsvc "github.com/onojaonoja2/ekonex/internal/services/tutor"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type TutorHandler struct {
	tutor  *tutorsvc.Service
	logger *zap.Logger
}

func NewTutorHandler(tutor *tutorsvc.Service, logger *zap.Logger) *TutorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorHandler{tutor: tutor, logger: logger}
}

// Chat streams the tutor's answer as server-sent events. Errors after the
// first delta can only be reported in-stream, the status line is long gone.
func (h *TutorHandler) Chat(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.tutor == nil {
		writeInternal(w, "TUTOR_SERVICE_UNAVAILABLE", "tutor service is unavailable")
		return
	}

	var req dto.TutorChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternal(w, "STREAMING_UNSUPPORTED", "response writer does not support streaming")
		return
	}

	started := false
	emit := func(delta string) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", encodeSSE(delta)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := h.tutor.Chat(r.Context(), identity.UserID, req.CourseID, req.Question, emit)
	if err != nil {
		if !started {
			handleTutorError(w, err)
			return
		}
		if !errors.Is(err, context.Canceled) {
			h.logger.Warn("tutor stream aborted", zap.Error(err))
			_, _ = fmt.Fprint(w, "event: error\ndata: stream aborted\n\n")
			flusher.Flush()
		}
		return
	}

	if !started {
		// Upstream produced no tokens at all.
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// Reindex rebuilds the embeddings of a course after content edits.
func (h *TutorHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.tutor == nil {
		writeInternal(w, "TUTOR_SERVICE_UNAVAILABLE", "tutor service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	chunks, err := h.tutor.ReindexCourse(r.Context(), identity.UserID, identity.Role, courseID)
	if err != nil {
		handleTutorError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.TutorReindexResponse{
		CourseID: courseID,
		Chunks:   chunks,
	})
}

func handleTutorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tutorsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, tutorsvc.ErrNotEnrolled):
		writeForbidden(w, "NOT_ENROLLED", "enrollment required")
	case errors.Is(err, tutorsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you do not manage this course")
	case errors.Is(err, tutorsvc.ErrUpstream):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "TUTOR_UPSTREAM_ERROR",
			Message: "tutor is temporarily unavailable",
		})
	case errors.Is(err, context.DeadlineExceeded):
		httperrors.Write(w, http.StatusGatewayTimeout, httperrors.APIError{
			Code:    "TUTOR_TIMEOUT",
			Message: "tutor took too long to answer",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

// encodeSSE keeps multi-line deltas inside a single SSE data field.
func encodeSSE(delta string) string {
	out := make([]byte, 0, len(delta))
	for i := 0; i < len(delta); i++ {
		if delta[i] == '\n' {
			out = append(out, "\ndata: "...)
			continue
		}
		out = append(out, delta[i])
	}
	return string(out)
}
