package service

import (
	"regexp"
	"strings"
)

// phonePattern admits digits, +, spaces, parentheses and hyphens,
// 5 to 20 characters.
var phonePattern = regexp.MustCompile(`^[0-9+\s()-]{5,20}$`)

// ValidatePhone reports whether raw is an acceptable phone number.
// Surrounding whitespace is trimmed before the length/pattern check; no
// other normalization happens here.
func ValidatePhone(raw string) bool {
	phone := strings.TrimSpace(raw)
	if len(phone) < 5 || len(phone) > 20 {
		return false
	}
	return phonePattern.MatchString(phone)
}

// stripNonDigits keeps only ASCII digits; used to derive the guest
// identity from a raw phone string.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
