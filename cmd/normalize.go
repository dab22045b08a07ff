package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artstat/leads-cli/internal/model"
	"github.com/artstat/leads-cli/internal/pipeline"
)

var (
	normalizeClient string
	normalizeIn     string
	normalizeOut    string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize raw lead JSON into a flat CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, slug, err := resolveClient(normalizeClient)
		if err != nil {
			return err
		}

		in := normalizeIn
		if in == "" {
			in = filepath.Join(cfg.Export.DataDir, slug+"_leads_raw.json")
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return eris.Wrapf(err, "read %s", in)
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return eris.Wrapf(err, "decode %s", in)
		}

		p := pipeline.New(nil, newNormalizer(clientID, slug), nil, nil,
			clientID, slug, cfg.Normalize.Workers)
		flats, err := p.NormalizeAll(cmd.Context(), raws)
		if err != nil {
			return err
		}

		out := normalizeOut
		if out == "" {
			out = filepath.Join(cfg.Export.DataDir, slug+"_leads_flat.csv")
		}
		records := make([][]string, 0, len(flats))
		for _, f := range flats {
			records = append(records, f.Row())
		}
		if err := writeCSVFile(out, model.FlatHeader, records); err != nil {
			return err
		}

		zap.L().Info("leads normalized",
			zap.String("client", slug),
			zap.Int("count", len(flats)),
			zap.String("file", out))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeClient, "client", "", "client slug (default from config)")
	normalizeCmd.Flags().StringVar(&normalizeIn, "in", "", "raw leads JSON file")
	normalizeCmd.Flags().StringVar(&normalizeOut, "out", "", "flat CSV output file")
	rootCmd.AddCommand(normalizeCmd)
}
