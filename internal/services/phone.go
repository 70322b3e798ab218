package services

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// Only allow digits, spaces, +, -, ., (, )
	rePhoneAllowed = regexp.MustCompile(`^[0-9+\-\s\(\)\.]+$`)
)

// NormPhone reduces a US phone number to its canonical 10-digit form.
// Accepts exactly 10 digits, or 11 digits with a leading country "1"
// (which is stripped). Anything else returns "".
func NormPhone(p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return ""
	}
	if reLetters.MatchString(s) {
		return ""
	}
	if !rePhoneAllowed.MatchString(s) {
		return ""
	}

	d := digitsOnly(s)
	switch {
	case len(d) == 10:
		return d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return d[1:]
	}
	return ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
