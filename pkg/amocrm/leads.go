package amocrm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// leadsPage is one page of the leads listing. Leads are kept as raw JSON
// so the export preserves every field the CRM sent, known or not.
type leadsPage struct {
	Embedded struct {
		Leads []json.RawMessage `json:"leads"`
	} `json:"_embedded"`
	Links struct {
		Next struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

// ListLeads pulls every lead in the account, following _links.next until
// the listing ends. Records come back as raw JSON documents.
func (c *Client) ListLeads(ctx context.Context) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/v4/leads?limit=%d", c.base, c.pageLimit)

	var all []json.RawMessage
	for url != "" {
		var page leadsPage
		if err := c.getJSON(ctx, url, &page); err != nil {
			if eris.Is(err, errNoContent) {
				break
			}
			return nil, eris.Wrap(err, "amocrm: list leads")
		}

		all = append(all, page.Embedded.Leads...)
		url = page.Links.Next.Href
	}

	zap.L().Info("amocrm leads listed", zap.Int("count", len(all)))
	return all, nil
}
