package normalize

import (
	"regexp"
	"strings"

	"github.com/artstat/leads-cli/internal/model"
)

// A Rule rewrites the source/channel classification of one flat lead.
// Rules run in slice order and later rules overwrite earlier ones; the
// ordering is business policy, not an accident.
type Rule struct {
	Name  string
	Apply func(row *model.FlatLead)
}

var (
	dealOnlyRE = regexp.MustCompile(`(?i)^\s*сделка\s*#\s*\d+\s*$`)
	vaSipRE    = regexp.MustCompile(`(?i)\b(?:va|sip)\b`)
	sipAnyRE   = regexp.MustCompile(`(?i)sip`)
	vaWordRE   = regexp.MustCompile(`(?i)\bva\b`)
)

// DefaultRules builds the ordered source/channel rule list. siteMarker
// is the client's site domain; its presence anywhere in the row turns
// the lead into a site request regardless of call keywords.
func DefaultRules(siteMarker string) []Rule {
	marker := strings.ToLower(siteMarker)

	return []Rule{
		{
			// A name that is nothing but "Сделка #NNN" was created by
			// hand in the CRM, so the lead came in offline.
			Name: "offline-deal",
			Apply: func(row *model.FlatLead) {
				if dealOnlyRE.MatchString(CleanText(row.Name)) {
					row.Source = "оффлайн"
				}
			},
		},
		{
			Name: "call-keywords",
			Apply: func(row *model.FlatLead) {
				low := strings.ToLower(CleanText(row.Name))
				if strings.Contains(low, "сделка по звонку") ||
					strings.Contains(low, "по звонку") ||
					strings.Contains(low, "звонок") {
					row.Source = "звонок"
					row.Channel = "звонок"
				}
			},
		},
		{
			// Site domain anywhere in the row wins over the call and
			// offline rules.
			Name: "site-marker",
			Apply: func(row *model.FlatLead) {
				if marker == "" {
					return
				}
				combined := strings.ToLower(strings.Join([]string{
					CleanText(row.Name),
					CleanText(row.NameClean),
					CleanText(row.Source),
					CleanText(row.Channel),
					CleanText(row.UTMSource),
					CleanText(row.UTMMedium),
					CleanText(row.UTMCampaign),
					CleanText(row.UTMContent),
					CleanText(row.UTMTerm),
					CleanText(row.Tags),
				}, " "))
				if strings.Contains(combined, marker) {
					row.Source = "заявка с сайта"
					row.Channel = "заявка с сайта"
				}
			},
		},
		{
			// Telephony system labels (va, sip) leaking into source mean
			// the lead was a call.
			Name: "va-sip",
			Apply: func(row *model.FlatLead) {
				src := CleanText(row.Source)
				if src != "" {
					src = vaSipRE.ReplaceAllString(src, "звонок")
					src = sipAnyRE.ReplaceAllString(src, "звонок")
					src = vaWordRE.ReplaceAllString(src, "звонок")
					src = strings.ToLower(src)
				}
				row.Source = src
			},
		},
		{
			// Final override: an instagram tag pins the source no matter
			// what the earlier rules decided.
			Name: "instagram-tag",
			Apply: func(row *model.FlatLead) {
				for _, tag := range strings.Split(strings.ToLower(CleanText(row.Tags)), ";") {
					if strings.TrimSpace(tag) == "instagram" {
						row.Source = "instagram"
						return
					}
				}
			},
		},
	}
}

// ApplyRules runs the rule list in order, then re-cleans the channel.
func ApplyRules(row *model.FlatLead, rules []Rule) {
	for _, rule := range rules {
		rule.Apply(row)
	}
	row.Channel = CleanText(row.Channel)
}
