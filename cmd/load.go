package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artstat/leads-cli/internal/csvio"
	"github.com/artstat/leads-cli/internal/model"
	"github.com/artstat/leads-cli/internal/warehouse"
)

var (
	loadClient string
	loadIn     string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load CSVs into the warehouse",
}

var loadLeadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Load the flat leads CSV into leads_fact",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, loadClient, loadIn, "_leads_flat.csv",
			func(ctx loadCtx, header []string, records [][]string) (int, error) {
				rows := make([]model.FlatLead, 0, len(records))
				for _, rec := range records {
					rows = append(rows, model.FlatLeadFromRecord(header, rec))
				}
				return ctx.wh.ReplaceLeads(ctx.cmdCtx, ctx.clientID, rows)
			})
	},
}

var loadStatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "Load the status dimension CSV into statuses_dim_v2",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, loadClient, loadIn, "_statuses.csv",
			func(ctx loadCtx, header []string, records [][]string) (int, error) {
				rows := make([]model.StatusRow, 0, len(records))
				for _, rec := range records {
					rows = append(rows, model.StatusRowFromRecord(header, rec))
				}
				return ctx.wh.ReplaceStatuses(ctx.cmdCtx, ctx.clientID, rows)
			})
	},
}

var loadLossReasonsCmd = &cobra.Command{
	Use:   "lossreasons",
	Short: "Load the loss-reason dimension CSV into loss_reasons_dim",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, loadClient, loadIn, "_loss_reasons.csv",
			func(ctx loadCtx, header []string, records [][]string) (int, error) {
				rows := make([]model.LossReasonRow, 0, len(records))
				for _, rec := range records {
					rows = append(rows, model.LossReasonRowFromRecord(header, rec))
				}
				return ctx.wh.ReplaceLossReasons(ctx.cmdCtx, ctx.clientID, rows)
			})
	},
}

type loadCtx struct {
	cmdCtx   context.Context
	wh       warehouse.Warehouse
	clientID int64
}

// runLoad is the shared frame of the three load subcommands: resolve
// the client, read the CSV, hand rows to the backend-specific loader.
func runLoad(cmd *cobra.Command, slug, in, defaultSuffix string, fn func(loadCtx, []string, [][]string) (int, error)) error {
	clientID, clientSlug, err := resolveClient(slug)
	if err != nil {
		return err
	}

	if in == "" {
		in = filepath.Join(cfg.Export.DataDir, clientSlug+defaultSuffix)
	}
	f, err := os.Open(in)
	if err != nil {
		return eris.Wrapf(err, "open %s", in)
	}
	defer f.Close()

	header, records, err := csvio.ReadAll(f)
	if err != nil {
		return eris.Wrapf(err, "read %s", in)
	}

	wh, err := openWarehouse(cmd.Context())
	if err != nil {
		return eris.Wrap(err, "open warehouse")
	}
	defer wh.Close()

	n, err := fn(loadCtx{cmdCtx: cmd.Context(), wh: wh, clientID: clientID}, header, records)
	if err != nil {
		return err
	}

	zap.L().Info("rows loaded",
		zap.String("client", clientSlug),
		zap.String("file", in),
		zap.Int("rows", n))
	return nil
}

func init() {
	loadCmd.PersistentFlags().StringVar(&loadClient, "client", "", "client slug (default from config)")
	loadCmd.PersistentFlags().StringVar(&loadIn, "in", "", "input CSV (default under export.data_dir)")
	loadCmd.AddCommand(loadLeadsCmd, loadStatusesCmd, loadLossReasonsCmd)
	rootCmd.AddCommand(loadCmd)
}
