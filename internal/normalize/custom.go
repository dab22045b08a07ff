package normalize

import (
	"strings"

	"github.com/artstat/leads-cli/internal/model"
)

// CustomFieldValues holds everything extracted from a lead's custom
// field list. Empty string means the field was absent.
type CustomFieldValues struct {
	Phone       string
	Email       string
	Source      string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMContent  string
	UTMTerm     string
}

// ExtractCustomFields walks the custom field list once. Fields coded
// PHONE/EMAIL are authoritative; everything else is matched by substring
// on the lower-cased display name. First match per target wins, later
// duplicates are ignored.
func ExtractCustomFields(fields []model.CustomField) CustomFieldValues {
	var out CustomFieldValues

	for _, field := range fields {
		value := joinFieldValues(field.Values)
		if value == "" {
			continue
		}

		code := strings.ToUpper(field.FieldCode)
		if code == "PHONE" && out.Phone == "" {
			out.Phone = NormalizePhone(value)
			continue
		}
		if code == "EMAIL" && out.Email == "" {
			out.Email = value
			continue
		}

		name := strings.ToLower(CleanText(field.FieldName))

		switch {
		case strings.Contains(name, "utm_source") && out.UTMSource == "":
			out.UTMSource = value
		case strings.Contains(name, "utm_medium") && out.UTMMedium == "":
			out.UTMMedium = value
		case strings.Contains(name, "utm_campaign") && out.UTMCampaign == "":
			out.UTMCampaign = value
		case strings.Contains(name, "utm_content") && out.UTMContent == "":
			out.UTMContent = value
		case strings.Contains(name, "utm_term") && out.UTMTerm == "":
			out.UTMTerm = value
		}

		if (strings.Contains(name, "источник") || name == "source") && out.Source == "" {
			out.Source = value
		}
	}

	return out
}

// joinFieldValues cleans each value and joins the non-empty ones with
// "; " so multi-value fields survive flattening.
func joinFieldValues(values []model.CustomFieldValue) string {
	var parts []string
	for _, v := range values {
		if v.Value == nil {
			continue
		}
		cleaned := CleanText(model.AsString(v.Value))
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, "; ")
}
