package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/motlowcreek/vbsreg/internal/models"
)

// generateRegCode creates a REG-XXXXXXXX code (uppercase hex, 32 bits of
// entropy). Returns "" only if the OS entropy source fails.
func generateRegCode() string {
	var b [4]byte
	if _, err := crand.Read(b[:]); err != nil {
		return ""
	}
	return fmt.Sprintf("REG-%08X", binary.BigEndian.Uint32(b[:]))
}

// uniqueRegCode retries until an unused code is found. 20 tries is far more
// than 32 bits of entropy needs at this table size.
func uniqueRegCode(tx *gorm.DB) (string, error) {
	for i := 0; i < 20; i++ {
		code := generateRegCode()
		if code == "" {
			continue
		}
		var n int64
		if err := tx.Model(&models.Guardian{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("failed to generate registration code")
}
