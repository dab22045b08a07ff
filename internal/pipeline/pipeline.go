// Package pipeline chains the ETL stages: pull from the CRM, normalize,
// load into the warehouse. Every stage is journaled in the run log.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/artstat/leads-cli/internal/model"
	"github.com/artstat/leads-cli/internal/normalize"
	"github.com/artstat/leads-cli/internal/runlog"
	"github.com/artstat/leads-cli/internal/warehouse"
	"github.com/artstat/leads-cli/pkg/amocrm"
)

// Stage names used in the run log.
const (
	StageLeads       = "leads"
	StageStatuses    = "statuses"
	StageLossReasons = "lossreasons"
)

// CRM is the part of the amoCRM client the pipeline needs.
type CRM interface {
	ListLeads(ctx context.Context) ([]json.RawMessage, error)
	GetPipelines(ctx context.Context) ([]amocrm.Pipeline, error)
	GetLossReasons(ctx context.Context) ([]amocrm.LossReason, error)
}

// Pipeline runs the ETL for one client.
type Pipeline struct {
	crm        CRM
	norm       *normalize.Normalizer
	wh         warehouse.Warehouse
	journal    *runlog.Log
	clientID   int64
	clientSlug string
	workers    int
}

func New(crm CRM, norm *normalize.Normalizer, wh warehouse.Warehouse, journal *runlog.Log, clientID int64, clientSlug string, workers int) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		crm:        crm,
		norm:       norm,
		wh:         wh,
		journal:    journal,
		clientID:   clientID,
		clientSlug: clientSlug,
		workers:    workers,
	}
}

// Run refreshes leads, statuses and loss reasons in order. Dimension
// failures do not stop the lead refresh that already completed; the
// first error still fails the run as a whole.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.RunLeads(ctx); err != nil {
		return err
	}
	if err := p.RunStatuses(ctx); err != nil {
		return err
	}
	return p.RunLossReasons(ctx)
}

// RunLeads pulls every lead, normalizes the batch and replaces the
// client's rows in the facts table.
func (p *Pipeline) RunLeads(ctx context.Context) error {
	return p.journaled(ctx, StageLeads, func() (int, error) {
		raws, err := p.crm.ListLeads(ctx)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: list leads")
		}
		flats, err := p.NormalizeAll(ctx, raws)
		if err != nil {
			return 0, err
		}
		n, err := p.wh.ReplaceLeads(ctx, p.clientID, flats)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: load leads")
		}
		zap.L().Info("leads refreshed",
			zap.String("client", p.clientSlug),
			zap.Int("fetched", len(raws)),
			zap.Int("loaded", n))
		return n, nil
	})
}

// RunStatuses refreshes the pipeline-status dimension.
func (p *Pipeline) RunStatuses(ctx context.Context) error {
	return p.journaled(ctx, StageStatuses, func() (int, error) {
		pipelines, err := p.crm.GetPipelines(ctx)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: get pipelines")
		}
		rows := p.StatusRows(pipelines)
		n, err := p.wh.ReplaceStatuses(ctx, p.clientID, rows)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: load statuses")
		}
		zap.L().Info("statuses refreshed",
			zap.String("client", p.clientSlug),
			zap.Int("loaded", n))
		return n, nil
	})
}

// RunLossReasons refreshes the loss-reason dimension.
func (p *Pipeline) RunLossReasons(ctx context.Context) error {
	return p.journaled(ctx, StageLossReasons, func() (int, error) {
		reasons, err := p.crm.GetLossReasons(ctx)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: get loss reasons")
		}
		rows := p.LossReasonRows(reasons)
		n, err := p.wh.ReplaceLossReasons(ctx, p.clientID, rows)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: load loss reasons")
		}
		zap.L().Info("loss reasons refreshed",
			zap.String("client", p.clientSlug),
			zap.Int("loaded", n))
		return n, nil
	})
}

// journaled wraps one stage with run-log bookkeeping. Journal failures
// are logged but never mask the stage result.
func (p *Pipeline) journaled(ctx context.Context, stage string, fn func() (int, error)) error {
	var runID string
	if p.journal != nil {
		id, err := p.journal.Start(ctx, p.clientSlug, stage)
		if err != nil {
			zap.L().Warn("run log start failed", zap.String("stage", stage), zap.Error(err))
		} else {
			runID = id
		}
	}

	n, err := fn()

	if runID != "" {
		if ferr := p.journal.Finish(ctx, runID, n, err); ferr != nil {
			zap.L().Warn("run log finish failed", zap.String("stage", stage), zap.Error(ferr))
		}
	}
	return err
}

// NormalizeAll decodes and normalizes a batch of raw leads over a
// bounded worker pool. Output order matches input order. Records that
// fail to decode still produce a row, with every field degraded to its
// zero form.
func (p *Pipeline) NormalizeAll(ctx context.Context, raws []json.RawMessage) ([]model.FlatLead, error) {
	out := make([]model.FlatLead, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, raw := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var lead model.RawLead
			_ = json.Unmarshal(raw, &lead)
			out[i] = p.norm.Normalize(lead)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize batch")
	}
	return out, nil
}

// StatusRows flattens pipelines into dimension rows stamped with the
// client identity.
func (p *Pipeline) StatusRows(pipelines []amocrm.Pipeline) []model.StatusRow {
	return StatusRows(p.clientID, p.clientSlug, pipelines)
}

// LossReasonRows converts the loss-reason dictionary into dimension
// rows, formatting the CRM's epoch timestamps.
func (p *Pipeline) LossReasonRows(reasons []amocrm.LossReason) []model.LossReasonRow {
	return LossReasonRows(p.clientID, p.clientSlug, reasons)
}

func StatusRows(clientID int64, clientSlug string, pipelines []amocrm.Pipeline) []model.StatusRow {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	var rows []model.StatusRow
	for _, pl := range pipelines {
		for _, st := range pl.Embedded.Statuses {
			rows = append(rows, model.StatusRow{
				ClientID:     clientID,
				ClientSlug:   clientSlug,
				PipelineID:   pl.ID,
				PipelineName: pl.Name,
				StatusID:     st.ID,
				StatusName:   st.Name,
				Sort:         st.Sort,
				IsFinal:      st.IsFinal,
				IsWon:        st.IsWon,
				IsLost:       st.IsLost,
				UpdatedAt:    now,
			})
		}
	}
	return rows
}

func LossReasonRows(clientID int64, clientSlug string, reasons []amocrm.LossReason) []model.LossReasonRow {
	var rows []model.LossReasonRow
	for _, r := range reasons {
		rows = append(rows, model.LossReasonRow{
			ClientID:       clientID,
			ClientSlug:     clientSlug,
			LossReasonID:   r.ID,
			LossReasonName: r.Name,
			CreatedAt:      normalize.EpochToDateTime(r.CreatedAt),
			UpdatedAt:      normalize.EpochToDateTime(r.UpdatedAt),
			Sort:           r.Sort,
		})
	}
	return rows
}
