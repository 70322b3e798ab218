package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/motlowcreek/vbsreg/internal/models"
)

// QR renders the registration code from the confirmation email as a PNG for
// first-day check-in scanners.
func QR(gdb *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			http.NotFound(w, r)
			return
		}
		// ensure code exists
		var g models.Guardian
		if err := gdb.Where("code = ?", code).First(&g).Error; err != nil {
			http.NotFound(w, r)
			return
		}

		png, err := qrcode.Encode(code, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to generate qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
