package http

import (
	"net/http"
	"net/url"

	"github.com/caremypark/caremypark/pkg/slogx"
	qrcode "github.com/skip2/go-qrcode"
)

// qrImageSize is the edge length of the generated QR PNG in pixels.
const qrImageSize = 256

// QRHandler serves printable QR codes for park signage. Scanning one opens
// the report form pre-filled with the sign's location.
type QRHandler struct {
	// BaseURL is the public site root the QR codes point at.
	BaseURL string
}

// HandleGet handles GET /api/generate-qr.
func (h *QRHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	location := r.URL.Query().Get("location")
	if location == "" {
		location = "Main Park"
	}

	target := h.BaseURL + "/report?location=" + url.QueryEscape(location)
	png, err := qrcode.Encode(target, qrcode.Medium, qrImageSize)
	if err != nil {
		log.Error("failed to generate qr code", "location", location, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Internal server error.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
