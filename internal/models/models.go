package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guardian is the registering adult. Email and the normalized primary phone
// are the two identities the database enforces as unique.
type Guardian struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName      string `gorm:"not null"`
	LastName       string `gorm:"not null"`
	Email          string `gorm:"uniqueIndex;not null"`
	PhonePrimary   string `gorm:"uniqueIndex;not null"` // normalized 10-digit
	PhoneAlternate string
	Address1       string `gorm:"not null"`
	Address2       string
	City           string `gorm:"not null"`
	State          string `gorm:"size:2;not null"`
	Zip            string `gorm:"size:10;not null"`

	// Printed in the confirmation email, scannable via /qr/{code}.png
	Code string `gorm:"uniqueIndex"` // e.g., REG-4F09A1C3

	Children []Child
}

type Child struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	GuardianID string `gorm:"size:36;not null"`
	Guardian   Guardian

	FirstName   string `gorm:"not null"`
	LastName    string `gorm:"not null"`
	DateOfBirth string `gorm:"not null"` // YYYY-MM-DD
	ClassInFall string `gorm:"not null"`
	School      string
}

// MedicalInformation exists only when at least one field was supplied.
// Absent fields are stored as NULL, not "".
type MedicalInformation struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ChildID string `gorm:"size:36;not null"`
	Child   Child

	FoodAllergies       *string
	DietaryRestrictions *string
	EmergencyMedical    *string
}

// EmergencyContact rows are duplicated per (child, contact) pair when a
// submission registers multiple children. Kept denormalized on purpose.
type EmergencyContact struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ChildID string `gorm:"size:36;not null"`
	Child   Child

	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	PhonePrimary string `gorm:"not null"`
	Relationship string `gorm:"not null"`
}

type Consent struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ChildID string `gorm:"size:36;not null"`
	Child   Child

	PhotoRelease     bool      `gorm:"not null"` // true = excluded from media
	ConsentGiven     bool      `gorm:"not null"`
	ConsentTimestamp time.Time `gorm:"not null"`
}

// SQLite has no server-side uuid default, so IDs are assigned on create.

func (g *Guardian) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

func (c *Child) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (m *MedicalInformation) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (e *EmergencyContact) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (c *Consent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
