package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var tenDigits = regexp.MustCompile(`^\d{10}$`)

// NormalizeString trims whitespace and collapses internal runs of spaces
func NormalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsBlank reports whether s is empty after trimming
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// NormalizePhone normalizes phone numbers (basic cleaning)
func NormalizePhone(phone string) string {
	// Remove all non-digit characters except + at the beginning
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return ""
	}

	var result strings.Builder
	for i, r := range cleaned {
		if i == 0 && r == '+' {
			result.WriteRune(r)
		} else if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// IsTenDigitPhone reports whether phone is exactly ten digits once spaces and dashes are removed.
func IsTenDigitPhone(phone string) bool {
	return tenDigits.MatchString(NormalizePhone(phone))
}

// NormalizeVehicleNumber uppercases a registration plate and drops separators.
func NormalizeVehicleNumber(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
