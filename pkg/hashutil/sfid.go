package hashutil

import (
	"fmt"
	"strings"
)

// base32Alphabet is the Salesforce ID checksum alphabet: A-Z then 0-5.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"

// IdFormatError is raised when an account ID is neither 15 nor 18
// alphanumeric characters after schema resolution (§4.1, §7).
type IdFormatError struct {
	Samples []string
}

func (e *IdFormatError) Error() string {
	return fmt.Sprintf("invalid Salesforce ID length: %d sample value(s) are not 15 or 18 characters: %v",
		len(e.Samples), e.Samples)
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// SFID15To18 extends a 15-char Salesforce ID to its canonical 18-char form
// using the standard Salesforce checksum algorithm: the input is split into
// three 5-char blocks; for each block, a 5-bit flag is built from whether
// each character is an uppercase letter, and that flag (0-31) indexes into
// the base32 checksum alphabet. Case of the input therefore deterministically
// affects the checksum (§8).
func SFID15To18(id15 string) (string, error) {
	if len(id15) != 15 || !isAlphanumeric(id15) {
		return "", &IdFormatError{Samples: []string{id15}}
	}

	var suffix strings.Builder
	for block := 0; block < 3; block++ {
		chunk := id15[block*5 : block*5+5]
		flags := 0
		for i, r := range chunk {
			if r >= 'A' && r <= 'Z' {
				flags |= 1 << uint(i)
			}
		}
		suffix.WriteByte(base32Alphabet[flags])
	}
	return id15 + suffix.String(), nil
}

// CanonicalizeSFID validates and canonicalizes a Salesforce-style account ID
// per §4.1: 15-char inputs are extended to 18; 18-char inputs pass through
// after validation; any other length is an IdFormatError.
func CanonicalizeSFID(id string) (string, error) {
	switch len(id) {
	case 15:
		return SFID15To18(id)
	case 18:
		if !isAlphanumeric(id) {
			return "", &IdFormatError{Samples: []string{id}}
		}
		return id, nil
	default:
		return "", &IdFormatError{Samples: []string{id}}
	}
}

// CanonicalizeSFIDBatch canonicalizes many IDs, accumulating up to
// maxSamples offending values into a single IdFormatError instead of
// failing on the first bad row (§7: "fatal with sample").
func CanonicalizeSFIDBatch(ids []string, maxSamples int) ([]string, error) {
	out := make([]string, len(ids))
	var bad []string
	for i, id := range ids {
		canon, err := CanonicalizeSFID(id)
		if err != nil {
			if len(bad) < maxSamples {
				bad = append(bad, id)
			}
			continue
		}
		out[i] = canon
	}
	if len(bad) > 0 {
		return nil, &IdFormatError{Samples: bad}
	}
	return out, nil
}
