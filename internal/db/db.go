package db

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/motlowcreek/vbsreg/internal/models"
)

// Open initializes the database at path and migrates the registration tables.
// The handle is passed explicitly to whoever needs it; there is no package
// singleton, so teardown is the caller's Close on the underlying sql.DB.
func Open(path string) (*gorm.DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := conn.AutoMigrate(
		&models.Guardian{},
		&models.Child{},
		&models.MedicalInformation{},
		&models.EmergencyContact{},
		&models.Consent{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	// Child-lookup indexes that GORM doesn't auto-create from struct tags.
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_children_guardian ON children(guardian_id)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_medical_child     ON medical_informations(child_id)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_contacts_child    ON emergency_contacts(child_id)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_consents_child    ON consents(child_id)")

	log.Println("database ready (sqlite)")
	return conn, nil
}
