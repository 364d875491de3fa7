package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestQRHandler(t *testing.T) {
	h := &QRHandler{BaseURL: "https://park.example.com"}

	t.Run("returns a png for the requested location", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/generate-qr?location=North+Gate", nil)
		rec := httptest.NewRecorder()

		h.HandleGet(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		require.Greater(t, rec.Body.Len(), len(pngMagic))
		require.Equal(t, pngMagic, rec.Body.Bytes()[:len(pngMagic)])
	})

	t.Run("defaults the location when omitted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/generate-qr", nil)
		rec := httptest.NewRecorder()

		h.HandleGet(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	})
}
