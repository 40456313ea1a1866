package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/palmgate/leadgen-cli/internal/pipeline"
)

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full lead run",
	Long:  "Scrapes all enabled sources, verifies and scores the leads, syncs qualified leads to CRM sinks, sends outreach and prints the run report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		leads, report, err := env.Pipeline.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("run_id", report.RunID),
			zap.Int("unique", report.LeadsUnique),
			zap.Int("qualified", report.Qualified),
		)

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Report any `json:"report"`
				Leads  any `json:"leads"`
			}{Report: report, Leads: leads})
		}

		fmt.Fprintln(os.Stdout, pipeline.FormatReport(report))
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print report and final lead states as JSON")
	rootCmd.AddCommand(runCmd)
}
