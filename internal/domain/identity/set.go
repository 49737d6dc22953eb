package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Set holds the normalized identifiers carried by one ingestion payload.
// A zero value for a field means the payload did not carry that identifier.
type Set struct {
	Mobile      string
	PAN         string
	AadhaarRef  string
	UCID        string
	PrevLoanApp string
}

// NormalizeSet canonicalizes every identifier of a raw payload at once.
func NormalizeSet(mobile, pan, aadhaarRef, ucid, prevLoanApp string) Set {
	return Set{
		Mobile:      NormalizeMobile(mobile),
		PAN:         NormalizePAN(pan),
		AadhaarRef:  NormalizeAadhaarRef(aadhaarRef),
		UCID:        NormalizeUCID(ucid),
		PrevLoanApp: NormalizeLoanAppNumber(prevLoanApp),
	}
}

// Empty reports whether the set carries no identifier at all.
func (s Set) Empty() bool {
	return s.Mobile == "" && s.PAN == "" && s.AadhaarRef == "" && s.UCID == "" && s.PrevLoanApp == ""
}

// LockKey derives a stable key for the whole identifier set, used to
// serialize concurrent resolve+create attempts for the same real-world
// person. The key is the SHA-256 of the canonical kind=value concatenation,
// so payloads carrying the identifiers in any casing or formatting map to
// the same key.
func (s Set) LockKey() string {
	parts := make([]string, 0, 5)
	if s.Mobile != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", KindMobile, s.Mobile))
	}
	if s.PAN != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", KindPAN, s.PAN))
	}
	if s.AadhaarRef != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", KindAadhaarRef, s.AadhaarRef))
	}
	if s.UCID != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", KindUCID, s.UCID))
	}
	if s.PrevLoanApp != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", KindPrevLoanApp, s.PrevLoanApp))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
