package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/artstat/leads-cli/internal/model"
	"github.com/artstat/leads-cli/internal/normalize"
	"github.com/artstat/leads-cli/internal/pipeline"
	"github.com/artstat/leads-cli/internal/runlog"
	"github.com/artstat/leads-cli/internal/warehouse"
	"github.com/artstat/leads-cli/pkg/amocrm"
)

// resolveClient maps --client (or the configured default) to the
// client identity stamped on every row.
func resolveClient(slug string) (int64, string, error) {
	if slug == "" {
		slug = cfg.Clients.DefaultSlug
	}
	id, err := model.NewClientRegistry(cfg.Clients.Map).ID(slug)
	if err != nil {
		return 0, "", err
	}
	return id, slug, nil
}

func newCRM() *amocrm.Client {
	ts := amocrm.NewFileTokenSource(amocrm.Credentials{
		AccountDomain: cfg.AmoCRM.AccountDomain,
		ClientID:      cfg.AmoCRM.ClientID,
		ClientSecret:  cfg.AmoCRM.ClientSecret,
		RedirectURI:   cfg.AmoCRM.RedirectURI,
	}, cfg.AmoCRM.TokenFile)

	return amocrm.NewClient(ts, amocrm.Options{
		AccountDomain: cfg.AmoCRM.AccountDomain,
		Timeout:       time.Duration(cfg.AmoCRM.TimeoutSecs) * time.Second,
		MaxRetries:    cfg.AmoCRM.MaxRetries,
		RateLimit:     cfg.AmoCRM.RateLimit,
		PageLimit:     cfg.AmoCRM.PageLimit,
	})
}

func newNormalizer(clientID int64, clientSlug string) *normalize.Normalizer {
	return normalize.New(clientID, clientSlug, normalize.DefaultRules(cfg.Normalize.SiteMarker))
}

// openWarehouse connects and migrates the configured backend.
func openWarehouse(ctx context.Context) (warehouse.Warehouse, error) {
	wh, err := warehouse.Open(ctx, cfg.Warehouse)
	if err != nil {
		return nil, err
	}
	if err := wh.Migrate(ctx); err != nil {
		wh.Close()
		return nil, err
	}
	return wh, nil
}

func openJournal(ctx context.Context) (*runlog.Log, error) {
	journal, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		return nil, err
	}
	if err := journal.Migrate(ctx); err != nil {
		journal.Close()
		return nil, err
	}
	return journal, nil
}

// newPipeline wires the full ETL for one client. The returned cleanup
// closes the warehouse and the run log.
func newPipeline(ctx context.Context, slug string) (*pipeline.Pipeline, func(), error) {
	clientID, clientSlug, err := resolveClient(slug)
	if err != nil {
		return nil, nil, err
	}

	wh, err := openWarehouse(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open warehouse")
	}
	journal, err := openJournal(ctx)
	if err != nil {
		wh.Close()
		return nil, nil, eris.Wrap(err, "open run log")
	}

	p := pipeline.New(newCRM(), newNormalizer(clientID, clientSlug), wh, journal,
		clientID, clientSlug, cfg.Normalize.Workers)
	cleanup := func() {
		journal.Close()
		wh.Close()
	}
	return p, cleanup, nil
}
