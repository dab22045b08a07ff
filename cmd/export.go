package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artstat/leads-cli/internal/csvio"
	"github.com/artstat/leads-cli/internal/model"
	"github.com/artstat/leads-cli/internal/pipeline"
)

var (
	exportClient string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Pull raw data from amoCRM",
}

var exportLeadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Export all leads as raw JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, slug, err := resolveClient(exportClient)
		if err != nil {
			return err
		}

		raws, err := newCRM().ListLeads(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "export leads")
		}

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.Export.DataDir, slug+"_leads_raw.json")
		}
		if err := writeJSONFile(out, raws); err != nil {
			return err
		}

		zap.L().Info("leads exported",
			zap.String("client", slug),
			zap.Int("count", len(raws)),
			zap.String("file", out))
		return nil
	},
}

var exportStatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "Export the pipeline-status dimension as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, slug, err := resolveClient(exportClient)
		if err != nil {
			return err
		}

		pipelines, err := newCRM().GetPipelines(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "export statuses")
		}
		rows := pipeline.StatusRows(clientID, slug, pipelines)

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.Export.DataDir, slug+"_statuses.csv")
		}
		records := make([][]string, 0, len(rows))
		for _, r := range rows {
			records = append(records, r.Row())
		}
		if err := writeCSVFile(out, model.StatusHeader, records); err != nil {
			return err
		}

		zap.L().Info("statuses exported",
			zap.String("client", slug),
			zap.Int("count", len(rows)),
			zap.String("file", out))
		return nil
	},
}

var exportLossReasonsCmd = &cobra.Command{
	Use:   "lossreasons",
	Short: "Export the loss-reason dimension as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, slug, err := resolveClient(exportClient)
		if err != nil {
			return err
		}

		reasons, err := newCRM().GetLossReasons(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "export loss reasons")
		}
		rows := pipeline.LossReasonRows(clientID, slug, reasons)

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.Export.DataDir, slug+"_loss_reasons.csv")
		}
		records := make([][]string, 0, len(rows))
		for _, r := range rows {
			records = append(records, r.Row())
		}
		if err := writeCSVFile(out, model.LossReasonHeader, records); err != nil {
			return err
		}

		zap.L().Info("loss reasons exported",
			zap.String("client", slug),
			zap.Int("count", len(rows)),
			zap.String("file", out))
		return nil
	},
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func writeCSVFile(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w, err := csvio.NewWriter(f, header)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportClient, "client", "", "client slug (default from config)")
	exportCmd.PersistentFlags().StringVar(&exportOut, "out", "", "output file (default under export.data_dir)")
	exportCmd.AddCommand(exportLeadsCmd, exportStatusesCmd, exportLossReasonsCmd)
	rootCmd.AddCommand(exportCmd)
}
