package normalize

import (
	"regexp"
	"strings"
)

// phoneLikeRE finds an embedded phone number: optional +, a digit, then
// at least eight digits/spaces/dashes/parens, ending on a digit.
var phoneLikeRE = regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`)

// boilerplatePrefixes are the CRM-generated lead name prefixes. The
// longest matching one is stripped, so "Новый лид звонок с " wins over
// the bare "Новый лид " it starts with.
var boilerplatePrefixes = []string{
	"Новый лид ",
	"Новый лид: ",
	"Новый лид - ",
	"Сделка по звонку ",
	"Новый лид звонок с ",
}

// NameFields is what name parsing derives from a lead's display name.
type NameFields struct {
	Channel       string // WhatsApp, Telegram, Call or ""
	PhoneFromName string // normalized phone found inside the name
	NameClean     string // name without boilerplate prefix and phone
}

// ParseName detects the communication channel, extracts an embedded
// phone number and strips CRM boilerplate from a cleaned lead name.
func ParseName(name string) NameFields {
	name = CleanText(name)
	low := strings.ToLower(name)

	var channel string
	switch {
	case strings.Contains(low, "whatsapp"):
		channel = "WhatsApp"
	case strings.Contains(low, "telegram"):
		channel = "Telegram"
	case strings.Contains(low, "звон"):
		channel = "Call"
	}

	var phone string
	if m := phoneLikeRE.FindString(name); m != "" {
		phone = NormalizePhone(m)
	}

	clean := name
	var matched string
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(clean, prefix) && len(prefix) > len(matched) {
			matched = prefix
		}
	}
	if matched != "" {
		clean = strings.TrimSpace(clean[len(matched):])
	}

	if phone != "" {
		clean = strings.TrimSpace(phoneLikeRE.ReplaceAllString(clean, ""))
		clean = whitespaceRE.ReplaceAllString(clean, " ")
	}

	return NameFields{
		Channel:       channel,
		PhoneFromName: phone,
		NameClean:     clean,
	}
}
