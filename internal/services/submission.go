package services

import "strings"

// Submission is the nested registration payload as posted by the form.
// Field names mirror the client form exactly; Guardians keeps its plural
// name from the form even though a submission carries exactly one.
type Submission struct {
	Guardians         GuardianInput  `json:"guardians"`
	Children          []ChildInput   `json:"children"`
	EmergencyContacts []ContactInput `json:"emergencyContacts"`
	Consent           ConsentInput   `json:"consent"`

	// Hidden anti-bot fields; legitimate users never fill these in.
	Honeypot  string `json:"honeypot"`
	Honeypot2 string `json:"honeypot2"`

	// Client-reported fill duration in milliseconds. Reported for analytics
	// only; the enforced timing signal is measured server-side.
	SubmissionTime int64 `json:"submissionTime"`
}

type GuardianInput struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhonePrimary   string `json:"phonePrimary"`
	PhoneAlternate string `json:"phoneAlternate"`
	Address1       string `json:"address1"`
	Address2       string `json:"address2"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
}

type ChildInput struct {
	FirstName          string       `json:"firstName"`
	LastName           string       `json:"lastName"`
	DateOfBirth        string       `json:"dateOfBirth"` // YYYY-MM-DD
	ClassInFall        string       `json:"classInFall"`
	School             string       `json:"school"`
	MedicalInformation MedicalInput `json:"medicalInformation"`
}

type MedicalInput struct {
	FoodAllergies       string `json:"foodAllergies"`
	DietaryRestrictions string `json:"dietaryRestrictions"`
	EmergencyMedical    string `json:"emergencyMedical"`
}

func (m MedicalInput) Empty() bool {
	return strings.TrimSpace(m.FoodAllergies) == "" &&
		strings.TrimSpace(m.DietaryRestrictions) == "" &&
		strings.TrimSpace(m.EmergencyMedical) == ""
}

type ContactInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PhonePrimary string `json:"phonePrimary"`
	Relationship string `json:"relationship"`
}

type ConsentInput struct {
	PhotoRelease bool `json:"photoRelease"` // true = excluded from media
	ConsentGiven bool `json:"consentGiven"`
}
