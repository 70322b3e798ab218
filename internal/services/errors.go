package services

import (
	"errors"
	"strings"
)

// Error kinds surfaced to the caller. These are the full taxonomy; handlers
// map them to HTTP statuses and the UI keys its messaging off them.
const (
	KindValidation        = "validation-error"
	KindBotDetected       = "bot-detected"
	KindDuplicate         = "duplicate-registration"
	KindWriteFailed       = "write-failed"
	KindAlreadyRegistered = "already-registered"
	KindRelationship      = "relationship-error"
	KindMissingRequired   = "missing-required-field"
	KindInternal          = "internal-error"
)

const (
	msgAlreadyRegistered = "This information is already registered. Please contact us if you believe this is an error."
	msgRelationship      = "Registration data relationship error. Please try again."
	msgMissingRequired   = "Required information is missing. Please check all required fields."
	msgWriteFailed       = "Your registration could not be saved. Please try again."
	msgInternal          = "Registration failed. Please try again. If the problem persists, contact support@vbs.motlowcreekministries.com"
	msgInvalidSubmission = "Invalid submission detected"
	msgFixFields         = "Please correct the highlighted fields."
)

// RegError is the typed failure a submission can produce. Fields is set only
// for validation errors and maps field paths to messages.
type RegError struct {
	Kind    string
	Message string
	Fields  map[string]string
}

func (e *RegError) Error() string { return e.Kind + ": " + e.Message }

// Insert steps that returned no row. Should not happen with a healthy
// database; kept as distinct sentinels so the translator can classify them.
var (
	errNoGuardianRow = errors.New("guardian insert returned no row")
	errNoChildRow    = errors.New("child insert returned no row")
)

// translateDBErr maps a storage failure to the stable taxonomy by inspecting
// the driver's message text: both sqlite and postgres spell out which
// constraint class fired, so a lowercase substring check covers the expected
// cases without driver-specific error types.
// Returns nil when the error isn't a recognized constraint failure.
func translateDBErr(err error) *RegError {
	if errors.Is(err, errNoGuardianRow) || errors.Is(err, errNoChildRow) {
		return &RegError{Kind: KindWriteFailed, Message: msgWriteFailed}
	}

	le := strings.ToLower(err.Error())
	switch {
	case strings.Contains(le, "unique"):
		// duplicate email or duplicate primary phone at the storage layer
		return &RegError{Kind: KindAlreadyRegistered, Message: msgAlreadyRegistered}
	case strings.Contains(le, "foreign key"):
		// should not occur given insert ordering; a writer bug if seen
		return &RegError{Kind: KindRelationship, Message: msgRelationship}
	case strings.Contains(le, "not null"):
		return &RegError{Kind: KindMissingRequired, Message: msgMissingRequired}
	}
	return nil
}
