package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/artstat/leads-cli/internal/report"
)

var reportClient string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the daily text report from warehouse aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, slug, err := resolveClient(reportClient)
		if err != nil {
			return err
		}

		wh, err := openWarehouse(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "open warehouse")
		}
		defer wh.Close()

		text, err := report.NewBuilder(wh).Build(cmd.Context(), clientID, slug, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportClient, "client", "", "client slug (default from config)")
	rootCmd.AddCommand(reportCmd)
}
