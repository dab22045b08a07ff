// Package report renders the daily text report agencies send to the
// client chat: communications per source, sales, potentially missed
// revenue and the loss-reason breakdown.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/artstat/leads-cli/internal/warehouse"
)

// UnknownSourceLabel covers leads where no source field was filled.
const UnknownSourceLabel = "Источник не указан"

// Builder renders reports from warehouse aggregates.
type Builder struct {
	wh warehouse.Warehouse
}

func NewBuilder(wh warehouse.Warehouse) *Builder {
	return &Builder{wh: wh}
}

// Build renders the report for one client as plain text.
func (b *Builder) Build(ctx context.Context, clientID int64, clientSlug string, day time.Time) (string, error) {
	comms, err := b.wh.CommunicationsBySource(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "report: communications")
	}
	sales, err := b.wh.Sales(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "report: sales")
	}
	lost, err := b.wh.Lost(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "report: lost")
	}
	reasons, err := b.wh.LossReasons(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "report: loss reasons")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ежедневный отчёт: %s (%s)\n\n", clientSlug, day.Format("2006-01-02"))

	sb.WriteString("Коммуникации:\n")
	var total uint64
	for _, sc := range comms {
		label := sc.Source
		if label == "" {
			label = UnknownSourceLabel
		}
		fmt.Fprintf(&sb, "  %s: %d\n", label, sc.Count)
		total += sc.Count
	}
	fmt.Fprintf(&sb, "  Всего: %d\n\n", total)

	sb.WriteString("Продажи:\n")
	fmt.Fprintf(&sb, "  Выиграно сделок: %d на сумму %s руб.\n", sales.WonCount, FormatMoney(sales.WonSum))
	fmt.Fprintf(&sb, "  Проиграно сделок: %d\n\n", sales.LostCount)

	sb.WriteString("Потенциально недополучено:\n")
	fmt.Fprintf(&sb, "  Сумма по проигранным сделкам: %s руб.\n", FormatMoney(lost.LostSum))
	fmt.Fprintf(&sb, "  Сделок без бюджета: %d\n\n", lost.UnknownBudgetCount)

	sb.WriteString("Причины отказов:\n")
	for _, st := range orderReasons(reasons) {
		fmt.Fprintf(&sb, "  %s: %d (%s руб.)\n", st.Reason, st.Count, FormatMoney(st.PriceSum))
	}

	return sb.String(), nil
}

// orderReasons keeps the warehouse ordering but pushes the
// unfilled-reason bucket to the end.
func orderReasons(reasons []warehouse.LossReasonStat) []warehouse.LossReasonStat {
	out := make([]warehouse.LossReasonStat, 0, len(reasons))
	var empty []warehouse.LossReasonStat
	for _, st := range reasons {
		if st.Reason == warehouse.EmptyReasonLabel {
			empty = append(empty, st)
			continue
		}
		out = append(out, st)
	}
	return append(out, empty...)
}

// FormatMoney renders a ruble amount with space thousands separators,
// rounded to whole rubles.
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(int64(v+0.5), 10)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		sb.WriteByte(' ')
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}
