package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	mediasvc "github.com/onojaonoja2/ekonex/internal/services/media"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

const maxUploadMemory = 32 << 20

type MediaHandler struct {
	media *mediasvc.Service
}

func NewMediaHandler(media *mediasvc.Service) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload accepts a multipart form with a "file" part and a "kind" field
// ("video" or "cover") and stores it under the course's prefix.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.media == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file part is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	upload, err := h.media.UploadCourseAsset(r.Context(), courseID, r.FormValue("kind"),
		header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if errors.Is(err, mediasvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid upload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to store upload")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.MediaUploadResponse{
		Key: upload.Key,
		URL: upload.URL,
	})
}

// SignedURL returns a short-lived download URL for a stored object key.
func (h *MediaHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.media == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	url, err := h.media.PresignGet(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		if errors.Is(err, mediasvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "key is required")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to sign url")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MediaURLResponse{URL: url})
}
