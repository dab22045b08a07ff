package amocrm

import (
	"context"

	"github.com/rotisserie/eris"
)

// Pipeline is one sales pipeline with its embedded statuses.
type Pipeline struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Embedded struct {
		Statuses []Status `json:"statuses"`
	} `json:"_embedded"`
}

// Status is one stage of a pipeline. The is_won/is_lost flags drive the
// sales sections of the daily report.
type Status struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Sort    int64  `json:"sort"`
	IsFinal bool   `json:"is_final"`
	IsWon   bool   `json:"is_won"`
	IsLost  bool   `json:"is_lost"`
}

// LossReason is one entry of the loss-reason dictionary. Timestamps are
// epoch seconds as the CRM sends them; they stay loose here and are
// formatted at export time.
type LossReason struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Sort      int64  `json:"sort"`
	CreatedAt any    `json:"created_at"`
	UpdatedAt any    `json:"updated_at"`
}

type pipelinesPage struct {
	Embedded struct {
		Pipelines []Pipeline `json:"pipelines"`
	} `json:"_embedded"`
}

type lossReasonsPage struct {
	Embedded struct {
		LossReasons []LossReason `json:"loss_reasons"`
	} `json:"_embedded"`
}

// GetPipelines fetches all pipelines with their statuses.
func (c *Client) GetPipelines(ctx context.Context) ([]Pipeline, error) {
	var page pipelinesPage
	if err := c.getJSON(ctx, c.base+"/api/v4/leads/pipelines", &page); err != nil {
		if eris.Is(err, errNoContent) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "amocrm: get pipelines")
	}
	return page.Embedded.Pipelines, nil
}

// GetLossReasons fetches the loss-reason dictionary.
func (c *Client) GetLossReasons(ctx context.Context) ([]LossReason, error) {
	var page lossReasonsPage
	if err := c.getJSON(ctx, c.base+"/api/v4/leads/loss_reasons", &page); err != nil {
		if eris.Is(err, errNoContent) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "amocrm: get loss reasons")
	}
	return page.Embedded.LossReasons, nil
}
