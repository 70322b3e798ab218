package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/motlowcreek/vbsreg/internal/config"
	"github.com/motlowcreek/vbsreg/internal/db"
	"github.com/motlowcreek/vbsreg/internal/mailer"
	"github.com/motlowcreek/vbsreg/internal/report"
	"github.com/motlowcreek/vbsreg/internal/services"
	"github.com/motlowcreek/vbsreg/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: no .env file loaded: %v", err)
	}
	cfg := config.Load()

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}
	defer sqlDB.Close()

	var rep services.Reporter = report.LogReporter{}
	if cfg.SentryDSN != "" {
		sr, err := report.NewSentry(cfg.SentryDSN)
		if err != nil {
			log.Printf("sentry init failed, falling back to log: %v", err)
		} else {
			rep = sr
			defer sr.Flush(2 * time.Second)
		}
	}

	m := mailer.NewClient(cfg.ResendAPIKey, cfg.MailFrom)
	rg := services.NewRegistrar(gdb, m, rep)

	r := web.Router(gdb, rg, cfg)

	log.Printf("VBS registration listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
