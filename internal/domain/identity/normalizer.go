package identity

import (
	"strings"
)

// IdentifierKind names the customer identifier columns that participate in
// deduplication. Each kind is globally unique across customers when present.
type IdentifierKind string

const (
	KindMobile      IdentifierKind = "mobile_number"
	KindPAN         IdentifierKind = "pan_number"
	KindAadhaarRef  IdentifierKind = "aadhaar_ref_number"
	KindUCID        IdentifierKind = "ucid_number"
	KindPrevLoanApp IdentifierKind = "prev_loan_app_number"
)

// NormalizeMobile strips everything but digits and canonicalizes Indian
// mobile numbers to their 10-digit form (dropping a leading 91 country code
// or a single 0 trunk prefix). Returns "" when no usable number remains.
func NormalizeMobile(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	if len(digits) != 10 {
		return ""
	}
	return digits
}

// NormalizePAN trims whitespace and upper-cases a PAN, then checks the
// AAAAA9999A shape. Returns "" for anything that is not a well-formed PAN.
func NormalizePAN(raw string) string {
	pan := strings.ToUpper(strings.TrimSpace(raw))
	if len(pan) != 10 {
		return ""
	}
	for i, r := range pan {
		if i < 5 || i == 9 {
			if r < 'A' || r > 'Z' {
				return ""
			}
			continue
		}
		if r < '0' || r > '9' {
			return ""
		}
	}
	return pan
}

// NormalizeAadhaarRef strips non-digits from an Aadhaar reference number.
func NormalizeAadhaarRef(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeUCID trims whitespace and upper-cases a UCID.
func NormalizeUCID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeLoanAppNumber trims whitespace and upper-cases a previous loan
// application number.
func NormalizeLoanAppNumber(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
