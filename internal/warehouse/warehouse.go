// Package warehouse loads normalized rows into the analytics database
// and answers the aggregate queries behind the daily report. Two
// backends exist: ClickHouse (production) and Postgres (used by clients
// hosted without ClickHouse and in tests). Refresh semantics are
// the same everywhere: delete the client's rows, then insert the new
// batch.
package warehouse

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/artstat/leads-cli/internal/config"
	"github.com/artstat/leads-cli/internal/model"
)

// Table names, fixed across backends.
const (
	LeadsTable       = "leads_fact"
	StatusesTable    = "statuses_dim_v2"
	LossReasonsTable = "loss_reasons_dim"
)

// SourceCount is one communications line: a source label and how many
// leads carried it.
type SourceCount struct {
	Source string
	Count  uint64
}

// SalesSummary aggregates won/lost deals for one client.
type SalesSummary struct {
	WonCount  uint64
	WonSum    float64
	LostCount uint64
}

// LostSummary is the "potentially missed revenue" section: the price sum
// of lost deals plus how many lost deals had no budget filled in.
type LostSummary struct {
	LostSum            float64
	UnknownBudgetCount uint64
}

// LossReasonStat is one line of the loss-reason breakdown.
type LossReasonStat struct {
	Reason   string
	Count    uint64
	PriceSum float64
}

// EmptyReasonLabel is the bucket leads fall into when the manager never
// filled the loss reason in.
const EmptyReasonLabel = "Причины отказов не заполнены"

// Warehouse is the analytics database the pipeline loads and the report
// reads.
type Warehouse interface {
	// Migrate creates the fact and dimension tables if missing.
	Migrate(ctx context.Context) error

	// Loading. Each call replaces the client's rows wholesale and
	// returns how many rows were inserted.
	ReplaceLeads(ctx context.Context, clientID int64, rows []model.FlatLead) (int, error)
	ReplaceStatuses(ctx context.Context, clientID int64, rows []model.StatusRow) (int, error)
	ReplaceLossReasons(ctx context.Context, clientID int64, rows []model.LossReasonRow) (int, error)

	// Report aggregates.
	CommunicationsBySource(ctx context.Context, clientID int64) ([]SourceCount, error)
	Sales(ctx context.Context, clientID int64) (SalesSummary, error)
	Lost(ctx context.Context, clientID int64) (LostSummary, error)
	LossReasons(ctx context.Context, clientID int64) ([]LossReasonStat, error)

	Close() error
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.WarehouseConfig) (Warehouse, error) {
	switch cfg.Driver {
	case "clickhouse":
		return NewClickHouse(ctx, cfg.DSN, cfg.Database)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("warehouse: unknown driver %q (want clickhouse or postgres)", cfg.Driver)
	}
}
