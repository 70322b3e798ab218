package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/motlowcreek/vbsreg/internal/mailer"
	"github.com/motlowcreek/vbsreg/internal/models"
)

// Mailer delivers the post-commit confirmation email. Failure is logged and
// never rolls back a registration.
type Mailer interface {
	Send(to, subject, html string) error
}

// Reporter receives unexpected storage failures with contextual metadata.
type Reporter interface {
	Report(err error, action string, context map[string]any)
}

// Registrar owns the registration write path: duplicate guard, the
// multi-table transaction, error translation, and the best-effort
// confirmation email. Constructed once at startup with its dependencies.
type Registrar struct {
	db       *gorm.DB
	mailer   Mailer
	reporter Reporter
	now      func() time.Time
}

func NewRegistrar(gdb *gorm.DB, m Mailer, rep Reporter) *Registrar {
	return &Registrar{db: gdb, mailer: m, reporter: rep, now: time.Now}
}

// Result is returned on success.
type Result struct {
	GuardianID    string   `json:"guardianId"`
	ChildIDs      []string `json:"childIds"`
	ChildrenCount int      `json:"childrenCount"`
	Code          string   `json:"code"`
}

// Submit validates the payload, guards against duplicate guardians, and runs
// the fan-out transaction. All rows land together or not at all; the email
// notification happens after commit and cannot fail the registration.
func (rg *Registrar) Submit(ctx context.Context, sub *Submission) (*Result, *RegError) {
	if sub.Honeypot != "" || sub.Honeypot2 != "" {
		return nil, &RegError{Kind: KindBotDetected, Message: msgInvalidSubmission}
	}

	if fields := ValidateSubmission(sub); len(fields) > 0 {
		return nil, &RegError{Kind: KindValidation, Message: msgFixFields, Fields: fields}
	}

	email := NormEmail(sub.Guardians.Email)

	// Duplicate guard. Two concurrent submissions can both pass this check;
	// the unique index on email is the actual authority and the loser of
	// that race surfaces as already-registered below.
	var existing models.Guardian
	err := rg.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, &RegError{
			Kind:    KindDuplicate,
			Message: fmt.Sprintf("A registration already exists for %s. Please contact us if you believe this is an error.", email),
		}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rg.failInternal(err, "duplicateGuard", sub)
	}

	res := &Result{}
	txErr := rg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := uniqueRegCode(tx)
		if err != nil {
			return err
		}

		g := &sub.Guardians
		guardian := models.Guardian{
			FirstName:      strings.TrimSpace(g.FirstName),
			LastName:       strings.TrimSpace(g.LastName),
			Email:          email,
			PhonePrimary:   NormPhone(g.PhonePrimary),
			PhoneAlternate: NormPhone(g.PhoneAlternate),
			Address1:       strings.TrimSpace(g.Address1),
			Address2:       strings.TrimSpace(g.Address2),
			City:           strings.TrimSpace(g.City),
			State:          strings.ToUpper(strings.TrimSpace(g.State)),
			Zip:            strings.TrimSpace(g.Zip),
			Code:           code,
		}
		if cr := tx.Create(&guardian); cr.Error != nil {
			return cr.Error
		} else if cr.RowsAffected == 0 || guardian.ID == "" {
			return errNoGuardianRow
		}

		childIDs := make([]string, 0, len(sub.Children))
		for i := range sub.Children {
			in := &sub.Children[i]
			child := models.Child{
				GuardianID:  guardian.ID,
				FirstName:   strings.TrimSpace(in.FirstName),
				LastName:    strings.TrimSpace(in.LastName),
				DateOfBirth: strings.TrimSpace(in.DateOfBirth),
				ClassInFall: strings.TrimSpace(in.ClassInFall),
				School:      strings.TrimSpace(in.School),
			}
			if cr := tx.Create(&child); cr.Error != nil {
				return cr.Error
			} else if cr.RowsAffected == 0 || child.ID == "" {
				return errNoChildRow
			}
			childIDs = append(childIDs, child.ID)

			// Medical row only when something was actually supplied;
			// absent fields stay NULL.
			if !in.MedicalInformation.Empty() {
				med := models.MedicalInformation{
					ChildID:             child.ID,
					FoodAllergies:       nullable(in.MedicalInformation.FoodAllergies),
					DietaryRestrictions: nullable(in.MedicalInformation.DietaryRestrictions),
					EmergencyMedical:    nullable(in.MedicalInformation.EmergencyMedical),
				}
				if err := tx.Create(&med).Error; err != nil {
					return err
				}
			}
		}

		// One consent row per child, same guardian-entered values, each with
		// its own server-assigned timestamp.
		for _, childID := range childIDs {
			consent := models.Consent{
				ChildID:          childID,
				PhotoRelease:     sub.Consent.PhotoRelease,
				ConsentGiven:     sub.Consent.ConsentGiven,
				ConsentTimestamp: rg.now(),
			}
			if err := tx.Create(&consent).Error; err != nil {
				return err
			}
		}

		// Full cross product: every supplied contact is written once per
		// child. Denormalized on purpose; see the data-model notes.
		for i := range sub.EmergencyContacts {
			ec := &sub.EmergencyContacts[i]
			for _, childID := range childIDs {
				contact := models.EmergencyContact{
					ChildID:      childID,
					FirstName:    strings.TrimSpace(ec.FirstName),
					LastName:     strings.TrimSpace(ec.LastName),
					PhonePrimary: NormPhone(ec.PhonePrimary),
					Relationship: strings.TrimSpace(ec.Relationship),
				}
				if err := tx.Create(&contact).Error; err != nil {
					return err
				}
			}
		}

		res.GuardianID = guardian.ID
		res.ChildIDs = childIDs
		res.ChildrenCount = len(childIDs)
		res.Code = code
		return nil
	})

	if txErr != nil {
		if re := translateDBErr(txErr); re != nil {
			// Expected constraint races (duplicate email/phone) stay quiet;
			// everything else goes to the sink.
			if re.Kind != KindAlreadyRegistered {
				rg.report(txErr, "createRegistration", sub)
			}
			return nil, re
		}
		return nil, rg.failInternal(txErr, "createRegistration", sub)
	}

	go rg.sendConfirmation(sub, res)

	return res, nil
}

func (rg *Registrar) sendConfirmation(sub *Submission, res *Result) {
	if rg.mailer == nil {
		return
	}
	names := make([]string, 0, len(sub.Children))
	for i := range sub.Children {
		c := &sub.Children[i]
		names = append(names, strings.TrimSpace(c.FirstName)+" "+strings.TrimSpace(c.LastName))
	}
	html, err := mailer.RenderConfirmation(mailer.ConfirmationData{
		GuardianFirstName: strings.TrimSpace(sub.Guardians.FirstName),
		ChildrenNames:     names,
		Code:              res.Code,
	})
	if err != nil {
		log.Printf("confirmation email render failed: %v", err)
		return
	}
	to := NormEmail(sub.Guardians.Email)
	if err := rg.mailer.Send(to, mailer.ConfirmationSubject, html); err != nil {
		log.Printf("confirmation email to %s failed: %v", to, err)
	}
}

func (rg *Registrar) report(err error, action string, sub *Submission) {
	if rg.reporter == nil {
		return
	}
	// Context is deliberately trimmed to non-sensitive fields; the raw
	// payload carries children's medical details and stays out of the sink.
	rg.reporter.Report(err, action, map[string]any{
		"email":    NormEmail(sub.Guardians.Email),
		"children": len(sub.Children),
		"contacts": len(sub.EmergencyContacts),
	})
}

func (rg *Registrar) failInternal(err error, action string, sub *Submission) *RegError {
	rg.report(err, action, sub)
	return &RegError{Kind: KindInternal, Message: msgInternal}
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
