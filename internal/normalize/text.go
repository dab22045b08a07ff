// Package normalize turns raw CRM lead records into flat analytics rows:
// text cleanup, phone/email extraction, UTM capture and the ordered
// source/channel classification rules. Everything here is a pure
// function of its input; malformed input degrades to empty fields
// instead of failing.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	markupTagRE  = regexp.MustCompile(`<[^>]+>`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	crlfReplacer = strings.NewReplacer("\r", " ", "\n", " ")
)

// CleanText normalizes a free-text CRM string: HTML entities decoded,
// markup tags replaced by a space, newlines flattened, whitespace runs
// collapsed, and mojibake repaired. Idempotent.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = markupTagRE.ReplaceAllString(s, " ")
	s = crlfReplacer.Replace(s)
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return RepairMojibake(s)
}

// RepairMojibake undoes UTF-8 text that was previously decoded as
// Latin-1. The marker characters Ð and Ñ are the lead bytes of Cyrillic
// UTF-8 sequences seen through Latin-1; without them the input is
// returned untouched. Up to three rounds handle multi-generation
// corruption; a round that fails to produce valid UTF-8, or changes
// nothing, stops the loop.
func RepairMojibake(s string) string {
	for range 3 {
		if !strings.ContainsRune(s, 'Ð') && !strings.ContainsRune(s, 'Ñ') {
			break
		}
		raw, err := charmap.ISO8859_1.NewEncoder().String(s)
		if err != nil || !utf8.ValidString(raw) {
			break
		}
		if raw == s {
			break
		}
		s = raw
	}
	return s
}
