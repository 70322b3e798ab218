package services

import (
	"fmt"
	"regexp"
	"strings"
)

const maxEmergencyContacts = 3

var (
	reEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	reCity  = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)
	reZip   = regexp.MustCompile(`^\d{5}(?:[-\s]\d{4})?$`)
)

// hasRepeatedRun reports 4+ repeats of the same character in the domain part.
// Go's regexp (RE2) has no backreferences, so `(.)\1{3,}` is expressed as a loop.
func hasRepeatedRun(s string) bool {
	run := 1
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
			if run >= 4 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

// Domain extensions the live email check accepts. Registrations come from
// families, so a short consumer-grade list beats accepting every TLD a bot
// can invent.
var validTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "edu": true, "gov": true,
	"io": true, "me": true, "uk": true, "ca": true,
}

var fakeDomains = map[string]bool{
	"test.com":    true,
	"example.com": true,
	"fake.com":    true,
	"dummy.com":   true,
}

// ValidateSubmission checks every field group and returns a field-path →
// message map. An empty map means the submission is valid. No database
// access happens here; the same input always yields the same result.
//
// Email gets the structural check only. The stricter TLD / fake-domain
// heuristics belong to the live per-field check (CheckEmailStrict) that the
// form calls while the user types; applying them at submit time would bounce
// registrations the form already accepted.
func ValidateSubmission(sub *Submission) map[string]string {
	errs := map[string]string{}

	validateGuardian(&sub.Guardians, errs)

	if len(sub.Children) == 0 {
		errs["children"] = "At least one child is required"
	}
	for i := range sub.Children {
		validateChild(&sub.Children[i], fmt.Sprintf("children.%d", i), errs)
	}

	if len(sub.EmergencyContacts) == 0 {
		errs["emergencyContacts"] = "At least one emergency contact is required"
	}
	if len(sub.EmergencyContacts) > maxEmergencyContacts {
		errs["emergencyContacts"] = "Maximum 3 emergency contacts allowed"
	}
	for i := range sub.EmergencyContacts {
		validateContact(&sub.EmergencyContacts[i], fmt.Sprintf("emergencyContacts.%d", i), errs)
	}

	if !sub.Consent.ConsentGiven {
		errs["consent.consentGiven"] = "Consent must be given to proceed with registration"
	}

	return errs
}

func validateGuardian(g *GuardianInput, errs map[string]string) {
	checkName(g.FirstName, "guardians.firstName", "First name", errs)
	checkName(g.LastName, "guardians.lastName", "Last name", errs)

	email := NormEmail(g.Email)
	switch {
	case email == "":
		errs["guardians.email"] = "Email is required"
	case !reEmail.MatchString(email):
		errs["guardians.email"] = "Please enter a valid email address"
	}

	if NormPhone(g.PhonePrimary) == "" {
		errs["guardians.phonePrimary"] = "Please enter a valid 10-digit phone number"
	}
	if g.PhoneAlternate != "" && NormPhone(g.PhoneAlternate) == "" {
		errs["guardians.phoneAlternate"] = "Please enter a valid 10-digit phone number"
	}

	a1 := strings.TrimSpace(g.Address1)
	switch {
	case len(a1) < 3:
		errs["guardians.address1"] = "Address is required"
	case len(a1) > 100:
		errs["guardians.address1"] = "Address must be less than 100 characters"
	}
	if len(strings.TrimSpace(g.Address2)) > 100 {
		errs["guardians.address2"] = "Address must be less than 100 characters"
	}

	city := strings.TrimSpace(g.City)
	switch {
	case len(city) < 2:
		errs["guardians.city"] = "City is required"
	case len(city) > 50 || !reCity.MatchString(city):
		errs["guardians.city"] = "Please enter a valid city name"
	}

	if len(g.State) != 2 || !usStates[strings.ToUpper(g.State)] {
		errs["guardians.state"] = "Please select a valid state"
	}

	if !reZip.MatchString(strings.TrimSpace(g.Zip)) {
		errs["guardians.zip"] = "Please enter a valid zip code"
	}
}

func validateChild(c *ChildInput, path string, errs map[string]string) {
	checkName(c.FirstName, path+".firstName", "First name", errs)
	checkName(c.LastName, path+".lastName", "Last name", errs)
	if strings.TrimSpace(c.DateOfBirth) == "" {
		errs[path+".dateOfBirth"] = "Date of birth is required"
	}
	if strings.TrimSpace(c.ClassInFall) == "" {
		errs[path+".classInFall"] = "Class in fall is required"
	}
	// School and the three medical fields are free-text and optional.
}

func validateContact(c *ContactInput, path string, errs map[string]string) {
	checkName(c.FirstName, path+".firstName", "First name", errs)
	checkName(c.LastName, path+".lastName", "Last name", errs)
	if NormPhone(c.PhonePrimary) == "" {
		errs[path+".phonePrimary"] = "Please enter a valid 10-digit phone number"
	}
	if strings.TrimSpace(c.Relationship) == "" {
		errs[path+".relationship"] = "Relationship is required"
	}
}

func checkName(s, path, label string, errs map[string]string) {
	n := strings.TrimSpace(s)
	switch {
	case n == "":
		errs[path] = label + " is required"
	case len(n) > 50:
		errs[path] = "Name must be less than 50 characters"
	}
}

// CheckEmailStrict runs the structural pattern plus the TLD allow-list and
// the known-fake heuristics. Returns "" when the address passes. Used by the
// live field-validation endpoint, not by submit-time validation.
func CheckEmailStrict(email string) string {
	e := NormEmail(email)
	if e == "" {
		return "Email is required"
	}
	if !reEmail.MatchString(e) {
		return "Please enter a valid email address"
	}

	domain := e[strings.LastIndex(e, "@")+1:]
	parts := strings.Split(domain, ".")
	tld := parts[len(parts)-1]
	if !validTLDs[tld] {
		return "Please enter an email with a valid domain extension"
	}

	if fakeDomains[domain] || hasRepeatedRun(domain) {
		return "Please enter a real email address"
	}
	return ""
}

// NormEmail lowercases and trims an address for storage and lookups.
func NormEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
