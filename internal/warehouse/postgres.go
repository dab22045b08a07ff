package warehouse

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/artstat/leads-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the warehouse needs. pgxmock
// satisfies it, which is how the Postgres backend is tested.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresWarehouse implements Warehouse on pgxpool.
type PostgresWarehouse struct {
	pool Pool
}

// NewPostgres creates a PostgresWarehouse with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresWarehouse, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresWarehouse{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Tests use it with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresWarehouse {
	return &PostgresWarehouse{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads_fact (
	client_id       BIGINT NOT NULL,
	client_slug     TEXT NOT NULL,
	lead_id         BIGINT NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	pipeline_id     BIGINT,
	status_id       BIGINT,
	loss_reason_id  BIGINT,
	price           DOUBLE PRECISION,
	account_id      BIGINT,
	created_by      BIGINT,
	updated_by      BIGINT,
	score           DOUBLE PRECISION,
	manager_id      BIGINT,
	is_deleted      SMALLINT NOT NULL DEFAULT 0,
	created_at      TIMESTAMP,
	updated_at      TIMESTAMP,
	closed_at       TIMESTAMP,
	created_dt      TIMESTAMP,
	updated_dt      TIMESTAMP,
	closed_dt       TIMESTAMP,
	phone           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	channel         TEXT NOT NULL DEFAULT '',
	utm_source      TEXT NOT NULL DEFAULT '',
	utm_medium      TEXT NOT NULL DEFAULT '',
	utm_campaign    TEXT NOT NULL DEFAULT '',
	utm_content     TEXT NOT NULL DEFAULT '',
	utm_term        TEXT NOT NULL DEFAULT '',
	phone_from_name TEXT NOT NULL DEFAULT '',
	name_clean      TEXT NOT NULL DEFAULT '',
	tags            TEXT NOT NULL DEFAULT '',
	etl_loaded_at   TIMESTAMP NOT NULL,
	PRIMARY KEY (client_id, lead_id)
);

CREATE INDEX IF NOT EXISTS idx_leads_fact_status ON leads_fact(client_id, status_id);
CREATE INDEX IF NOT EXISTS idx_leads_fact_created_dt ON leads_fact(client_id, created_dt);

CREATE TABLE IF NOT EXISTS statuses_dim_v2 (
	client_id     BIGINT NOT NULL,
	client_slug   TEXT NOT NULL,
	pipeline_id   BIGINT NOT NULL,
	pipeline_name TEXT NOT NULL DEFAULT '',
	status_id     BIGINT NOT NULL,
	status_name   TEXT NOT NULL DEFAULT '',
	sort          BIGINT NOT NULL DEFAULT 0,
	is_final      SMALLINT NOT NULL DEFAULT 0,
	is_won        SMALLINT NOT NULL DEFAULT 0,
	is_lost       SMALLINT NOT NULL DEFAULT 0,
	updated_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (client_id, pipeline_id, status_id)
);

CREATE TABLE IF NOT EXISTS loss_reasons_dim (
	client_id        BIGINT NOT NULL,
	client_slug      TEXT NOT NULL,
	loss_reason_id   BIGINT NOT NULL,
	loss_reason_name TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMP,
	updated_at       TIMESTAMP,
	sort             BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (client_id, loss_reason_id)
);
`

func (w *PostgresWarehouse) Migrate(ctx context.Context) error {
	_, err := w.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (w *PostgresWarehouse) Close() error {
	w.pool.Close()
	return nil
}

// replace runs the shared refresh transaction: wipe the client's rows,
// then bulk-insert the new batch via COPY.
func (w *PostgresWarehouse) replace(ctx context.Context, table string, columns []string, clientID int64, values [][]any) (int, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: begin %s refresh", table)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE client_id = $1`, clientID); err != nil {
		return 0, eris.Wrapf(err, "postgres: delete %s client %d", table, clientID)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(values))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: copy into %s", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: commit %s refresh", table)
	}
	return int(n), nil
}

func (w *PostgresWarehouse) ReplaceLeads(ctx context.Context, clientID int64, rows []model.FlatLead) (int, error) {
	loadedAt := time.Now().UTC()
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		vals, ok := leadValues(row, loadedAt)
		if !ok {
			continue
		}
		values = append(values, vals)
	}
	return w.replace(ctx, LeadsTable, leadColumns, clientID, values)
}

func (w *PostgresWarehouse) ReplaceStatuses(ctx context.Context, clientID int64, rows []model.StatusRow) (int, error) {
	loadedAt := time.Now().UTC()
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, statusValues(row, loadedAt))
	}
	return w.replace(ctx, StatusesTable, statusColumns, clientID, values)
}

func (w *PostgresWarehouse) ReplaceLossReasons(ctx context.Context, clientID int64, rows []model.LossReasonRow) (int, error) {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, lossReasonValues(row))
	}
	return w.replace(ctx, LossReasonsTable, lossReasonColumns, clientID, values)
}

func (w *PostgresWarehouse) CommunicationsBySource(ctx context.Context, clientID int64) ([]SourceCount, error) {
	rows, err := w.pool.Query(ctx,
		`SELECT source, count(*) FROM leads_fact
		 WHERE client_id = $1
		 GROUP BY source
		 ORDER BY count(*) DESC, source`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: communications by source")
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		var n int64
		if err := rows.Scan(&sc.Source, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source count")
		}
		sc.Count = uint64(n)
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: communications iterate")
}

func (w *PostgresWarehouse) Sales(ctx context.Context, clientID int64) (SalesSummary, error) {
	var s SalesSummary
	var wonCount, lostCount int64
	err := w.pool.QueryRow(ctx,
		`SELECT
		    count(*) FILTER (WHERE d.is_won = 1),
		    COALESCE(sum(f.price) FILTER (WHERE d.is_won = 1), 0),
		    count(*) FILTER (WHERE d.is_lost = 1)
		 FROM leads_fact f
		 LEFT JOIN statuses_dim_v2 d
		   ON d.client_id = f.client_id AND d.status_id = f.status_id
		 WHERE f.client_id = $1`,
		clientID,
	).Scan(&wonCount, &s.WonSum, &lostCount)
	if err != nil {
		return SalesSummary{}, eris.Wrap(err, "postgres: sales summary")
	}
	s.WonCount = uint64(wonCount)
	s.LostCount = uint64(lostCount)
	return s, nil
}

func (w *PostgresWarehouse) Lost(ctx context.Context, clientID int64) (LostSummary, error) {
	var l LostSummary
	var unknown int64
	err := w.pool.QueryRow(ctx,
		`SELECT
		    COALESCE(sum(f.price) FILTER (WHERE d.is_lost = 1), 0),
		    count(*) FILTER (WHERE d.is_lost = 1 AND COALESCE(f.price, 0) = 0)
		 FROM leads_fact f
		 LEFT JOIN statuses_dim_v2 d
		   ON d.client_id = f.client_id AND d.status_id = f.status_id
		 WHERE f.client_id = $1`,
		clientID,
	).Scan(&l.LostSum, &unknown)
	if err != nil {
		return LostSummary{}, eris.Wrap(err, "postgres: lost summary")
	}
	l.UnknownBudgetCount = uint64(unknown)
	return l, nil
}

func (w *PostgresWarehouse) LossReasons(ctx context.Context, clientID int64) ([]LossReasonStat, error) {
	rows, err := w.pool.Query(ctx,
		`SELECT
		    COALESCE(NULLIF(r.loss_reason_name, ''), $2) AS reason,
		    count(*),
		    COALESCE(sum(f.price), 0)
		 FROM leads_fact f
		 JOIN statuses_dim_v2 d
		   ON d.client_id = f.client_id AND d.status_id = f.status_id AND d.is_lost = 1
		 LEFT JOIN loss_reasons_dim r
		   ON r.client_id = f.client_id AND r.loss_reason_id = f.loss_reason_id
		 WHERE f.client_id = $1
		 GROUP BY reason
		 ORDER BY count(*) DESC, reason`,
		clientID, EmptyReasonLabel,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: loss reasons")
	}
	defer rows.Close()

	var out []LossReasonStat
	for rows.Next() {
		var st LossReasonStat
		var n int64
		if err := rows.Scan(&st.Reason, &n, &st.PriceSum); err != nil {
			return nil, eris.Wrap(err, "postgres: scan loss reason")
		}
		st.Count = uint64(n)
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "postgres: loss reasons iterate")
}
