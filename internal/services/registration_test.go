package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/motlowcreek/vbsreg/internal/models"
)

// openTestDB returns an isolated in-file SQLite database in a temp directory.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "test.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.Guardian{},
		&models.Child{},
		&models.MedicalInformation{},
		&models.EmergencyContact{},
		&models.Consent{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

// fakeMailer records sends on a channel so tests can wait for the
// fire-and-forget goroutine.
type fakeMailer struct {
	ch   chan sentMail
	fail bool
}

func newFakeMailer() *fakeMailer { return &fakeMailer{ch: make(chan sentMail, 4)} }

func (m *fakeMailer) Send(to, subject, html string) error {
	m.ch <- sentMail{To: to, Subject: subject, HTML: html}
	if m.fail {
		return errors.New("smtp down")
	}
	return nil
}

type reportedErr struct {
	Err     error
	Action  string
	Context map[string]any
}

type fakeReporter struct {
	mu    sync.Mutex
	calls []reportedErr
}

func (r *fakeReporter) Report(err error, action string, context map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reportedErr{Err: err, Action: action, Context: context})
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestRegistrar(t *testing.T) (*Registrar, *gorm.DB, *fakeMailer, *fakeReporter) {
	t.Helper()
	gdb := openTestDB(t)
	fm := newFakeMailer()
	fr := &fakeReporter{}
	return NewRegistrar(gdb, fm, fr), gdb, fm, fr
}

// validSubmission builds the canonical one-child submission.
func validSubmission() *Submission {
	return &Submission{
		Guardians: GuardianInput{
			FirstName:    "Test",
			LastName:     "Parent",
			Email:        "test@example.com",
			PhonePrimary: "1234567890",
			Address1:     "123 Test St",
			City:         "Test City",
			State:        "TX",
			Zip:          "12345",
		},
		Children: []ChildInput{{
			FirstName:   "Test",
			LastName:    "Child",
			DateOfBirth: "2015-01-01",
			ClassInFall: "Kindergarten",
			School:      "Test School",
			MedicalInformation: MedicalInput{
				FoodAllergies:       "None",
				DietaryRestrictions: "None",
				EmergencyMedical:    "None",
			},
		}},
		EmergencyContacts: []ContactInput{{
			FirstName:    "Emergency",
			LastName:     "Contact",
			PhonePrimary: "9876543210",
			Relationship: "Aunt",
		}},
		Consent: ConsentInput{PhotoRelease: true, ConsentGiven: true},
	}
}

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func assertEmptyDB(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	for name, m := range map[string]any{
		"guardians":          &models.Guardian{},
		"children":           &models.Child{},
		"medical":            &models.MedicalInformation{},
		"emergency contacts": &models.EmergencyContact{},
		"consents":           &models.Consent{},
	} {
		if n := countRows(t, gdb, m); n != 0 {
			t.Errorf("%s: want 0 rows, got %d", name, n)
		}
	}
}

// TestSubmit_SingleChild covers the canonical happy path: one guardian, one
// child with medical data, one contact → one row in every table.
func TestSubmit_SingleChild(t *testing.T) {
	rg, gdb, fm, _ := newTestRegistrar(t)

	res, regErr := rg.Submit(context.Background(), validSubmission())
	if regErr != nil {
		t.Fatalf("Submit: %v", regErr)
	}
	if res.GuardianID == "" {
		t.Error("GuardianID is empty")
	}
	if len(res.ChildIDs) != 1 {
		t.Fatalf("ChildIDs: want 1, got %d", len(res.ChildIDs))
	}
	if res.ChildrenCount != 1 {
		t.Errorf("ChildrenCount: want 1, got %d", res.ChildrenCount)
	}
	if !regCodeRE.MatchString(res.Code) {
		t.Errorf("Code %q does not match REG-[0-9A-F]{8}", res.Code)
	}

	if n := countRows(t, gdb, &models.Guardian{}); n != 1 {
		t.Errorf("guardians: want 1, got %d", n)
	}
	if n := countRows(t, gdb, &models.Child{}); n != 1 {
		t.Errorf("children: want 1, got %d", n)
	}
	if n := countRows(t, gdb, &models.MedicalInformation{}); n != 1 {
		t.Errorf("medical: want 1, got %d", n)
	}
	if n := countRows(t, gdb, &models.EmergencyContact{}); n != 1 {
		t.Errorf("contacts: want 1, got %d", n)
	}
	if n := countRows(t, gdb, &models.Consent{}); n != 1 {
		t.Errorf("consents: want 1, got %d", n)
	}

	// Child row references the guardian.
	var child models.Child
	if err := gdb.First(&child, "id = ?", res.ChildIDs[0]).Error; err != nil {
		t.Fatalf("load child: %v", err)
	}
	if child.GuardianID != res.GuardianID {
		t.Errorf("child.GuardianID = %q, want %q", child.GuardianID, res.GuardianID)
	}

	// Confirmation email fires after commit.
	select {
	case mail := <-fm.ch:
		if mail.To != "test@example.com" {
			t.Errorf("mail.To = %q", mail.To)
		}
	case <-time.After(2 * time.Second):
		t.Error("confirmation email was never sent")
	}
}

// TestSubmit_DuplicateEmail verifies the pre-flight duplicate guard: the
// second submission with the same email fails fast and writes nothing.
func TestSubmit_DuplicateEmail(t *testing.T) {
	rg, gdb, _, fr := newTestRegistrar(t)

	if _, regErr := rg.Submit(context.Background(), validSubmission()); regErr != nil {
		t.Fatalf("first Submit: %v", regErr)
	}

	_, regErr := rg.Submit(context.Background(), validSubmission())
	if regErr == nil {
		t.Fatal("second Submit succeeded, want duplicate-registration")
	}
	if regErr.Kind != KindDuplicate {
		t.Errorf("Kind = %q, want %q", regErr.Kind, KindDuplicate)
	}

	if n := countRows(t, gdb, &models.Guardian{}); n != 1 {
		t.Errorf("guardians: want 1, got %d", n)
	}
	if fr.count() != 0 {
		t.Errorf("reporter called %d times for an expected duplicate", fr.count())
	}
}

// TestSubmit_DuplicatePhone exercises the storage-layer constraint path the
// guard cannot see: different email, same primary phone.
func TestSubmit_DuplicatePhone(t *testing.T) {
	rg, gdb, _, fr := newTestRegistrar(t)

	if _, regErr := rg.Submit(context.Background(), validSubmission()); regErr != nil {
		t.Fatalf("first Submit: %v", regErr)
	}

	sub := validSubmission()
	sub.Guardians.Email = "other.parent@example.com"
	sub.Guardians.PhonePrimary = "(123) 456-7890" // same digits, different formatting

	_, regErr := rg.Submit(context.Background(), sub)
	if regErr == nil {
		t.Fatal("Submit succeeded, want already-registered")
	}
	if regErr.Kind != KindAlreadyRegistered {
		t.Errorf("Kind = %q, want %q", regErr.Kind, KindAlreadyRegistered)
	}

	// Rolled back: nothing from the second submission remains.
	if n := countRows(t, gdb, &models.Guardian{}); n != 1 {
		t.Errorf("guardians: want 1, got %d", n)
	}
	if n := countRows(t, gdb, &models.Child{}); n != 1 {
		t.Errorf("children: want 1, got %d", n)
	}
	if fr.count() != 0 {
		t.Errorf("reporter called %d times for an expected constraint race", fr.count())
	}
}

// TestSubmit_FanOut checks the multi-child cross product: 3 children and 2
// contacts produce 6 contact rows, 3 consents, and medical rows only for the
// children that supplied medical data.
func TestSubmit_FanOut(t *testing.T) {
	rg, gdb, _, _ := newTestRegistrar(t)

	sub := validSubmission()
	sub.Children = []ChildInput{
		{
			FirstName: "Jane", LastName: "Doe", DateOfBirth: "2018-05-15",
			ClassInFall: "Kindergarten",
			MedicalInformation: MedicalInput{
				FoodAllergies:    "Peanuts, tree nuts",
				EmergencyMedical: "EpiPen in backpack",
			},
		},
		{
			FirstName: "Jimmy", LastName: "Doe", DateOfBirth: "2016-08-22",
			ClassInFall: "2nd Grade",
			// no medical data → no row
		},
		{
			FirstName: "June", LastName: "Doe", DateOfBirth: "2014-11-02",
			ClassInFall:        "4th Grade",
			MedicalInformation: MedicalInput{DietaryRestrictions: "No dairy"},
		},
	}
	sub.EmergencyContacts = []ContactInput{
		{FirstName: "Jane", LastName: "Smith", PhonePrimary: "5554443333", Relationship: "Grandparent"},
		{FirstName: "Bob", LastName: "Smith", PhonePrimary: "5554443334", Relationship: "Uncle"},
	}

	res, regErr := rg.Submit(context.Background(), sub)
	if regErr != nil {
		t.Fatalf("Submit: %v", regErr)
	}
	if len(res.ChildIDs) != 3 {
		t.Fatalf("ChildIDs: want 3, got %d", len(res.ChildIDs))
	}

	if n := countRows(t, gdb, &models.EmergencyContact{}); n != 6 {
		t.Errorf("contacts: want 6 (3 children x 2 contacts), got %d", n)
	}
	if n := countRows(t, gdb, &models.Consent{}); n != 3 {
		t.Errorf("consents: want 3, got %d", n)
	}
	if n := countRows(t, gdb, &models.MedicalInformation{}); n != 2 {
		t.Errorf("medical: want 2, got %d", n)
	}

	// Every contact is duplicated per child, in child order.
	for _, childID := range res.ChildIDs {
		var n int64
		gdb.Model(&models.EmergencyContact{}).Where("child_id = ?", childID).Count(&n)
		if n != 2 {
			t.Errorf("child %s: want 2 contact rows, got %d", childID, n)
		}
	}

	// Absent medical fields are NULL, not "".
	var med models.MedicalInformation
	if err := gdb.Where("child_id = ?", res.ChildIDs[2]).First(&med).Error; err != nil {
		t.Fatalf("load medical: %v", err)
	}
	if med.FoodAllergies != nil {
		t.Errorf("FoodAllergies: want NULL, got %q", *med.FoodAllergies)
	}
	if med.DietaryRestrictions == nil || *med.DietaryRestrictions != "No dairy" {
		t.Errorf("DietaryRestrictions not stored: %v", med.DietaryRestrictions)
	}
}

// TestSubmit_Honeypot: a filled honeypot is rejected before any storage
// access.
func TestSubmit_Honeypot(t *testing.T) {
	rg, gdb, _, fr := newTestRegistrar(t)

	sub := validSubmission()
	sub.Honeypot = "http://spam.example"

	_, regErr := rg.Submit(context.Background(), sub)
	if regErr == nil || regErr.Kind != KindBotDetected {
		t.Fatalf("want bot-detected, got %v", regErr)
	}
	assertEmptyDB(t, gdb)
	if fr.count() != 0 {
		t.Errorf("bot detection must not reach the reporter, got %d calls", fr.count())
	}

	sub2 := validSubmission()
	sub2.Honeypot2 = "x"
	if _, regErr := rg.Submit(context.Background(), sub2); regErr == nil || regErr.Kind != KindBotDetected {
		t.Fatalf("honeypot2: want bot-detected, got %v", regErr)
	}
	assertEmptyDB(t, gdb)
}

// TestSubmit_ConsentRequired: consentGiven=false never reaches the writer.
func TestSubmit_ConsentRequired(t *testing.T) {
	rg, gdb, _, _ := newTestRegistrar(t)

	sub := validSubmission()
	sub.Consent.ConsentGiven = false

	_, regErr := rg.Submit(context.Background(), sub)
	if regErr == nil || regErr.Kind != KindValidation {
		t.Fatalf("want validation-error, got %v", regErr)
	}
	if msg := regErr.Fields["consent.consentGiven"]; msg != "Consent must be given to proceed with registration" {
		t.Errorf("consent message = %q", msg)
	}
	assertEmptyDB(t, gdb)
}

// TestSubmit_Atomicity simulates a failure partway through the fan-out (the
// consents table is missing) and verifies that no rows from the submission
// survive the rollback.
func TestSubmit_Atomicity(t *testing.T) {
	rg, gdb, _, fr := newTestRegistrar(t)

	if err := gdb.Migrator().DropTable(&models.Consent{}); err != nil {
		t.Fatalf("drop consents: %v", err)
	}

	_, regErr := rg.Submit(context.Background(), validSubmission())
	if regErr == nil {
		t.Fatal("Submit succeeded with a missing consents table")
	}
	if regErr.Kind != KindInternal {
		t.Errorf("Kind = %q, want %q", regErr.Kind, KindInternal)
	}

	// Guardian, child, medical were inserted before the failing step; all
	// must be gone.
	if n := countRows(t, gdb, &models.Guardian{}); n != 0 {
		t.Errorf("guardians: want 0 after rollback, got %d", n)
	}
	if n := countRows(t, gdb, &models.Child{}); n != 0 {
		t.Errorf("children: want 0 after rollback, got %d", n)
	}
	if n := countRows(t, gdb, &models.MedicalInformation{}); n != 0 {
		t.Errorf("medical: want 0 after rollback, got %d", n)
	}
	if n := countRows(t, gdb, &models.EmergencyContact{}); n != 0 {
		t.Errorf("contacts: want 0 after rollback, got %d", n)
	}

	if fr.count() != 1 {
		t.Errorf("unexpected failures must hit the reporter exactly once, got %d", fr.count())
	}
}

// TestSubmit_MailFailureDoesNotFailRegistration: the email is best-effort.
func TestSubmit_MailFailureDoesNotFailRegistration(t *testing.T) {
	gdb := openTestDB(t)
	fm := newFakeMailer()
	fm.fail = true
	rg := NewRegistrar(gdb, fm, &fakeReporter{})

	res, regErr := rg.Submit(context.Background(), validSubmission())
	if regErr != nil {
		t.Fatalf("Submit: %v", regErr)
	}
	if res.ChildrenCount != 1 {
		t.Errorf("ChildrenCount = %d", res.ChildrenCount)
	}

	select {
	case <-fm.ch:
		// send was attempted; its failure stayed out of the result
	case <-time.After(2 * time.Second):
		t.Error("confirmation email was never attempted")
	}
	if n := countRows(t, gdb, &models.Guardian{}); n != 1 {
		t.Errorf("guardians: want 1, got %d", n)
	}
}

// TestSubmit_ConsentTimestamps: each consent row gets its own server-assigned
// timestamp from the registrar clock.
func TestSubmit_ConsentTimestamps(t *testing.T) {
	rg, gdb, _, _ := newTestRegistrar(t)

	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	rg.now = func() time.Time { return fixed }

	sub := validSubmission()
	sub.Children = append(sub.Children, ChildInput{
		FirstName: "Second", LastName: "Child",
		DateOfBirth: "2017-02-03", ClassInFall: "1st Grade",
	})

	if _, regErr := rg.Submit(context.Background(), sub); regErr != nil {
		t.Fatalf("Submit: %v", regErr)
	}

	var consents []models.Consent
	if err := gdb.Find(&consents).Error; err != nil {
		t.Fatalf("load consents: %v", err)
	}
	if len(consents) != 2 {
		t.Fatalf("consents: want 2, got %d", len(consents))
	}
	for _, c := range consents {
		if !c.ConsentTimestamp.Equal(fixed) {
			t.Errorf("ConsentTimestamp = %v, want %v", c.ConsentTimestamp, fixed)
		}
		if !c.ConsentGiven {
			t.Error("ConsentGiven not persisted")
		}
		if !c.PhotoRelease {
			t.Error("PhotoRelease not persisted")
		}
	}
}
