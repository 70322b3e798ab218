package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	defaultAddr             = ":8080"
	defaultDatabasePath     = "vbsreg.db"
	defaultMinSubmitSeconds = 5
)

type Config struct {
	// HTTP listen address
	Addr string

	// database path (sqlite file)
	DatabasePath string

	// email delivery (Resend HTTP API)
	ResendAPIKey string
	MailFrom     string

	// error reporting; empty DSN disables Sentry and falls back to log
	SentryDSN string

	// bot heuristics: minimum seconds between form render and submit
	MinSubmitSeconds int

	// allowed browser origins for the JSON API
	CORSOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d.", envVar, valStr, defaultVal)
		return defaultVal
	}
	return val
}

func Load() Config {
	origins := []string{"http://localhost:3000"}
	if raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Config{
		Addr:             getEnvOrDefault("ADDR", defaultAddr),
		DatabasePath:     getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		MailFrom:         getEnvOrDefault("MAIL_FROM", "VBS Registration <noreply@vbs.motlowcreekministries.com>"),
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		MinSubmitSeconds: getEnvIntOrDefault("MIN_SUBMIT_SECONDS", defaultMinSubmitSeconds),
		CORSOrigins:      origins,
	}
}
