package handlers

import (
	"net/http"

	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/storage"
)

// FileHandler hands out short-lived presigned URLs; clients upload and
// download directly against the bucket.
type FileHandler struct {
	store *storage.S3Store
}

func NewFileHandler(store *storage.S3Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req dto.PresignUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	url, err := h.store.PresignUpload(r.Context(), req.Key, req.ContentType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.PresignedURLResponse{URL: url})
}

func (h *FileHandler) PresignDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, apperror.BadRequest("Failed to presign download", "Key is required"))
		return
	}

	url, err := h.store.PresignDownload(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.PresignedURLResponse{URL: url})
}
