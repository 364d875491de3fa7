package http

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/pkg/slogx"
)

// UploadsHandler streams stored report photos.
type UploadsHandler struct {
	ReportService *service.ReportService
}

// HandleGet handles GET /uploads/{photoRef}.
func (h *UploadsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	photoRef := r.PathValue("photoRef")
	rc, err := h.ReportService.OpenPhoto(ctx, photoRef)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(photoRef)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, rc); err != nil {
		log.Warn("failed to stream photo", "photo_ref", photoRef, "err", err)
	}
}
