// Package couponcode implements the coupon code mask used across the
// Puppy Digital Mart clients: uppercase alphanumerics grouped by hyphens
// inserted after the 1st, 3rd and 7th significant characters.
package couponcode

import "strings"

const (
	// MaxFormattedLen bounds the formatted code (12 significant chars + 3 hyphens).
	MaxFormattedLen = 15

	// SignificantLen is the number of alphanumeric characters in a full code.
	SignificantLen = 12

	// MinSignificant is the shortest code worth sending to the backend.
	MinSignificant = 4
)

// hyphenAfter holds the zero-based significant-character indexes that are
// followed by a hyphen in the formatted representation.
var hyphenAfter = map[int]bool{0: true, 2: true, 6: true}

// Significant strips everything outside [A-Z0-9] after uppercasing.
func Significant(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format reformats arbitrary input into the canonical masked shape.
// A hyphen follows the 1st, 3rd and 7th significant characters as soon as
// that count is reached, and the result is truncated to MaxFormattedLen.
// Format is idempotent: Format(Format(s)) == Format(s).
func Format(raw string) string {
	sig := Significant(raw)
	var b strings.Builder
	for i := 0; i < len(sig); i++ {
		b.WriteByte(sig[i])
		if hyphenAfter[i] {
			b.WriteByte('-')
		}
	}
	out := b.String()
	if len(out) > MaxFormattedLen {
		out = out[:MaxFormattedLen]
	}
	return out
}

// Normalize returns the canonical storage/lookup form: significant
// characters only, uppercased, no separators.
func Normalize(raw string) string {
	sig := Significant(raw)
	if len(sig) > SignificantLen {
		sig = sig[:SignificantLen]
	}
	return sig
}

// IsComplete reports whether the input carries a full code's worth of
// significant characters.
func IsComplete(raw string) bool {
	return len(Significant(raw)) >= SignificantLen
}

// TooShort reports whether the input has too few significant characters to
// be a plausible code. Such inputs are rejected before any lookup.
func TooShort(raw string) bool {
	return len(Significant(raw)) < MinSignificant
}
