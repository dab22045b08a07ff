package warehouse

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artstat/leads-cli/internal/model"
)

// newMockPostgres creates a PostgresWarehouse backed by pgxmock.
func newMockPostgres(t *testing.T) (*PostgresWarehouse, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresWarehouse_ReplaceLeads(t *testing.T) {
	w, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM leads_fact WHERE client_id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCopyFrom(pgx.Identifier{LeadsTable}, leadColumns).
		WillReturnResult(2)
	mock.ExpectCommit()

	rows := []model.FlatLead{
		{ClientID: 1, ClientSlug: "artroyal_detailing", ID: "101", Source: "vk"},
		{ClientID: 1, ClientSlug: "artroyal_detailing", ID: "0"}, // filtered out
		{ClientID: 1, ClientSlug: "artroyal_detailing", ID: "102", Source: "site"},
	}
	n, err := w.ReplaceLeads(context.Background(), 1, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_ReplaceLeads_DeleteFails(t *testing.T) {
	w, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM leads_fact`).
		WithArgs(int64(1)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := w.ReplaceLeads(context.Background(), 1, []model.FlatLead{{ClientID: 1, ID: "101"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete leads_fact")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_ReplaceStatuses(t *testing.T) {
	w, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM statuses_dim_v2 WHERE client_id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{StatusesTable}, statusColumns).
		WillReturnResult(1)
	mock.ExpectCommit()

	n, err := w.ReplaceStatuses(context.Background(), 1, []model.StatusRow{
		{ClientID: 1, ClientSlug: "artroyal_detailing", PipelineID: 776221, StatusID: 142, StatusName: "Успешно реализовано", IsWon: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_CommunicationsBySource(t *testing.T) {
	w, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT source, count\(\*\) FROM leads_fact`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"source", "count"}).
			AddRow("vk", int64(12)).
			AddRow("site", int64(5)))

	got, err := w.CommunicationsBySource(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []SourceCount{
		{Source: "vk", Count: 12},
		{Source: "site", Count: 5},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_Sales(t *testing.T) {
	w, mock := newMockPostgres(t)

	mock.ExpectQuery(`FROM leads_fact f`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"won", "won_sum", "lost"}).
			AddRow(int64(4), 180000.0, int64(7)))

	got, err := w.Sales(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, SalesSummary{WonCount: 4, WonSum: 180000, LostCount: 7}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_LossReasons(t *testing.T) {
	w, mock := newMockPostgres(t)

	mock.ExpectQuery(`LEFT JOIN loss_reasons_dim`).
		WithArgs(int64(1), EmptyReasonLabel).
		WillReturnRows(pgxmock.NewRows([]string{"reason", "count", "price_sum"}).
			AddRow("Дорого", int64(3), 45000.0).
			AddRow(EmptyReasonLabel, int64(2), 0.0))

	got, err := w.LossReasons(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, LossReasonStat{Reason: "Дорого", Count: 3, PriceSum: 45000}, got[0])
	assert.Equal(t, EmptyReasonLabel, got[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
