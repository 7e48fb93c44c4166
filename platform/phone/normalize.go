// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// NormalizeE164 formats a phone number to E.164 using the default region.
// If parsing fails, it returns the trimmed input so exact-match comparisons
// still work on whatever the caller stored.
func NormalizeE164(input string) string {
	return NormalizeE164Region(input, defaultRegion)
}

// NormalizeE164Region formats a phone number to E.164 for the given region.
func NormalizeE164Region(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
