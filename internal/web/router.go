package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/motlowcreek/vbsreg/internal/config"
	"github.com/motlowcreek/vbsreg/internal/handlers"
	"github.com/motlowcreek/vbsreg/internal/services"
)

func Router(gdb *gorm.DB, rg *services.Registrar, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true, // the form-start cookie rides along
	}).Handler)

	r.Get("/healthz", handlers.Health)

	// Registration flow
	r.Get("/api/register/start", handlers.RegisterStart)
	r.Post("/api/register", handlers.RegisterSubmit(rg, cfg.MinSubmitSeconds))
	r.Post("/api/validate/email", handlers.ValidateEmail)

	// QR image for the code in the confirmation email
	r.Get("/qr/{code}.png", handlers.QR(gdb))

	return r
}
