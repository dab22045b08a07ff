package normalize

import (
	"regexp"
	"strings"
)

var nonDigitRE = regexp.MustCompile(`\D`)

// NormalizePhone reduces a raw phone string to a canonical form. The
// input may carry punctuation, spaces and even several values joined
// together; everything but digits is dropped. An 11-digit Russian number
// starting with 8 is rewritten to the 7 prefix, an 11-digit number
// starting with 7 gains a leading +. Any other digit count is returned
// as bare digits with no validity assumption.
func NormalizePhone(raw string) string {
	raw = CleanText(raw)
	digits := nonDigitRE.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "8") {
		digits = "7" + digits[1:]
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "7") {
		return "+" + digits
	}
	return digits
}
