package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artstat/leads-cli/internal/model"
)

const isoLayout = "2006-01-02 15:04:05"

// Normalizer flattens raw CRM leads for one client. It carries no
// mutable state, so a single instance is safe to use from any number of
// goroutines.
type Normalizer struct {
	clientID   int64
	clientSlug string
	rules      []Rule
}

// New builds a Normalizer stamping rows with the given client identity
// and classifying with the given rule list (see DefaultRules).
func New(clientID int64, clientSlug string, rules []Rule) *Normalizer {
	return &Normalizer{
		clientID:   clientID,
		clientSlug: clientSlug,
		rules:      rules,
	}
}

// Normalize converts one raw lead into its flat form. It is total:
// whatever the input looks like, a row comes back, with "" standing in
// for anything absent or unparsable.
func (n *Normalizer) Normalize(lead model.RawLead) model.FlatLead {
	row := model.FlatLead{
		ClientID:          n.clientID,
		ClientSlug:        n.clientSlug,
		ID:                model.AsString(lead.ID),
		AccountID:         model.AsString(lead.AccountID),
		PipelineID:        model.AsString(lead.PipelineID),
		StatusID:          model.AsString(lead.StatusID),
		Price:             model.AsString(lead.Price),
		ResponsibleUserID: model.AsString(lead.ResponsibleUserID),
		CreatedBy:         model.AsString(lead.CreatedBy),
		UpdatedBy:         model.AsString(lead.UpdatedBy),
		IsDeleted:         model.AsString(lead.IsDeleted),
		LossReasonID:      model.AsString(lead.LossReasonID),
		Score:             model.AsString(lead.Score),
	}

	// Epoch timestamps become DateTime strings; the *_dt duplicates are
	// kept for the BI layer, which binds to them directly.
	row.CreatedAt = EpochToDateTime(lead.CreatedAt)
	row.UpdatedAt = EpochToDateTime(lead.UpdatedAt)
	row.ClosedAt = EpochToDateTime(lead.ClosedAt)
	row.CreatedDt = row.CreatedAt
	row.UpdatedDt = row.UpdatedAt
	row.ClosedDt = row.ClosedAt

	row.Name = CleanText(model.AsString(lead.Name))
	parsed := ParseName(row.Name)
	row.Channel = parsed.Channel
	row.PhoneFromName = parsed.PhoneFromName
	row.NameClean = parsed.NameClean

	cf := ExtractCustomFields(lead.CustomFields)
	row.Phone = cf.Phone
	row.Email = cf.Email
	row.Source = cf.Source
	row.UTMSource = cf.UTMSource
	row.UTMMedium = cf.UTMMedium
	row.UTMCampaign = cf.UTMCampaign
	row.UTMContent = cf.UTMContent
	row.UTMTerm = cf.UTMTerm

	row.Tags = ExtractTags(lead.Embedded.Tags)

	ApplyRules(&row, n.rules)

	return row
}

// ExtractTags lower-cases and cleans tag names, removes duplicates and
// joins them sorted so the output is stable across exports.
func ExtractTags(tags []model.LeadTag) string {
	seen := make(map[string]struct{}, len(tags))
	var names []string
	for _, t := range tags {
		if t.Name == "" {
			continue
		}
		name := strings.ToLower(CleanText(t.Name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "; ")
}

// EpochToDateTime renders an epoch-seconds value as a UTC
// "YYYY-MM-DD HH:MM:SS" string, or "" when absent or unparsable.
// Decimal commas are tolerated, matching the CRM's localized exports.
func EpochToDateTime(v any) string {
	s := strings.TrimSpace(model.AsString(v))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ""
	}
	return time.Unix(int64(f), 0).UTC().Format(isoLayout)
}
