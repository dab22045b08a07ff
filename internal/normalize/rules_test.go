package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artstat/leads-cli/internal/model"
)

const testSiteMarker = "artroyal-detailing.ru"

func applyDefault(row model.FlatLead) model.FlatLead {
	ApplyRules(&row, DefaultRules(testSiteMarker))
	return row
}

func TestOfflineDealRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lead   model.FlatLead
		source string
	}{
		{"plain deal number", model.FlatLead{Name: "Сделка #4521"}, "оффлайн"},
		{"whitespace tolerated", model.FlatLead{Name: "  сделка  # 77  "}, "оффлайн"},
		{"trailing text breaks the match", model.FlatLead{Name: "Сделка #4521 от Ивана"}, ""},
		{"no digits", model.FlatLead{Name: "Сделка #"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applyDefault(tt.lead)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestCallKeywordRule(t *testing.T) {
	t.Parallel()

	got := applyDefault(model.FlatLead{Name: "Сделка по звонку 12.05"})
	assert.Equal(t, "звонок", got.Source)
	assert.Equal(t, "звонок", got.Channel)

	got = applyDefault(model.FlatLead{Name: "Пропущенный звонок"})
	assert.Equal(t, "звонок", got.Source)
	assert.Equal(t, "звонок", got.Channel)
}

func TestSiteMarkerOverridesOfflineAndCall(t *testing.T) {
	t.Parallel()

	// Offline-looking name, but a UTM field carries the site domain.
	got := applyDefault(model.FlatLead{
		Name:      "Сделка #4521",
		UTMSource: "https://artroyal-detailing.ru/form",
	})
	assert.Equal(t, "заявка с сайта", got.Source)
	assert.Equal(t, "заявка с сайта", got.Channel)

	// Call keywords also lose to the site marker.
	got = applyDefault(model.FlatLead{
		Name:        "Сделка по звонку",
		UTMCampaign: "ARTROYAL-DETAILING.RU",
	})
	assert.Equal(t, "заявка с сайта", got.Source)
	assert.Equal(t, "заявка с сайта", got.Channel)
}

func TestVaSipRewrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"standalone va", "va", "звонок"},
		{"standalone sip", "SIP", "звонок"},
		{"sip embedded in token", "sip-trunk", "звонок-trunk"},
		{"mixed value lower-cased", "Яндекс Директ", "яндекс директ"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applyDefault(model.FlatLead{Source: tt.source})
			assert.Equal(t, tt.want, got.Source)
		})
	}
}

func TestInstagramTagOverridesEverything(t *testing.T) {
	t.Parallel()

	got := applyDefault(model.FlatLead{
		Name:      "Сделка по звонку",
		UTMSource: "artroyal-detailing.ru",
		Tags:      "avito; instagram",
	})
	assert.Equal(t, "instagram", got.Source)
	// Channel keeps whatever the earlier rules set.
	assert.Equal(t, "заявка с сайта", got.Channel)
}

func TestRuleOrderIsStable(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	for _, r := range DefaultRules(testSiteMarker) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"offline-deal",
		"call-keywords",
		"site-marker",
		"va-sip",
		"instagram-tag",
	}, names)
}
