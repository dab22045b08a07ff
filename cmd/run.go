package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runClient string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ETL: export, normalize, load",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cleanup, err := newPipeline(cmd.Context(), runClient)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := p.Run(cmd.Context()); err != nil {
			return err
		}
		zap.L().Info("etl run complete")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runClient, "client", "", "client slug (default from config)")
	rootCmd.AddCommand(runCmd)
}
