package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artstat/leads-cli/internal/warehouse"
)

// fakeWarehouse serves canned aggregates.
type fakeWarehouse struct {
	warehouse.Warehouse

	comms   []warehouse.SourceCount
	sales   warehouse.SalesSummary
	lost    warehouse.LostSummary
	reasons []warehouse.LossReasonStat
}

func (f *fakeWarehouse) CommunicationsBySource(context.Context, int64) ([]warehouse.SourceCount, error) {
	return f.comms, nil
}

func (f *fakeWarehouse) Sales(context.Context, int64) (warehouse.SalesSummary, error) {
	return f.sales, nil
}

func (f *fakeWarehouse) Lost(context.Context, int64) (warehouse.LostSummary, error) {
	return f.lost, nil
}

func (f *fakeWarehouse) LossReasons(context.Context, int64) ([]warehouse.LossReasonStat, error) {
	return f.reasons, nil
}

func TestBuild(t *testing.T) {
	t.Parallel()

	fake := &fakeWarehouse{
		comms: []warehouse.SourceCount{
			{Source: "vk", Count: 12},
			{Source: "", Count: 3},
		},
		sales: warehouse.SalesSummary{WonCount: 4, WonSum: 1250000, LostCount: 7},
		lost:  warehouse.LostSummary{LostSum: 310000, UnknownBudgetCount: 2},
		reasons: []warehouse.LossReasonStat{
			{Reason: warehouse.EmptyReasonLabel, Count: 5, PriceSum: 0},
			{Reason: "Дорого", Count: 3, PriceSum: 45000},
		},
	}

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := NewBuilder(fake).Build(context.Background(), 1, "artroyal_detailing", day)
	require.NoError(t, err)

	assert.Contains(t, got, "Ежедневный отчёт: artroyal_detailing (2025-06-01)")
	assert.Contains(t, got, "  vk: 12")
	assert.Contains(t, got, "  Источник не указан: 3")
	assert.Contains(t, got, "  Всего: 15")
	assert.Contains(t, got, "Выиграно сделок: 4 на сумму 1 250 000 руб.")
	assert.Contains(t, got, "Проиграно сделок: 7")
	assert.Contains(t, got, "Сумма по проигранным сделкам: 310 000 руб.")
	assert.Contains(t, got, "Сделок без бюджета: 2")

	// The unfilled-reason bucket renders after the named reasons.
	iNamed := strings.Index(got, "Дорого: 3 (45 000 руб.)")
	iEmpty := strings.Index(got, warehouse.EmptyReasonLabel+": 5 (0 руб.)")
	require.GreaterOrEqual(t, iNamed, 0)
	require.GreaterOrEqual(t, iEmpty, 0)
	assert.Less(t, iNamed, iEmpty)
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{1250000, "1 250 000"},
		{45000.6, "45 001"},
		{-5200, "-5 200"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in), "input %v", tt.in)
	}
}
