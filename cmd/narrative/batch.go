package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"narrative_framework/internal/app"
)

var batchForce bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate narratives for every pending record in the inbox",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, m, err := setup()
		if err != nil {
			return err
		}
		a, err := app.New(cfg, logger, m)
		if err != nil {
			return err
		}
		result, err := a.Batch(cmd.Context(), batchForce)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		s := result.Summary
		fmt.Fprintln(out, titleStyle.Render("Batch complete"))
		fmt.Fprintln(out, row("inbox", cfg.InboxDir))
		fmt.Fprintln(out, row("outbox", cfg.OutboxDir))
		fmt.Fprintln(out, row("records", s.TotalCandidates))
		fmt.Fprintln(out, row("already done", s.AlreadyProcessed))
		fmt.Fprintln(out, row("generated", okStyle.Render(fmtValue(result.Processed-result.Failed))))
		failed := fmtValue(result.Failed)
		if result.Failed > 0 {
			failed = warnStyle.Render(failed)
		}
		fmt.Fprintln(out, row("failed", failed))
		if result.Failed > 0 {
			return fmt.Errorf("%d record(s) could not be processed", result.Failed)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "regenerate records that already have a narrative")
}

func fmtValue(v any) string {
	return fmt.Sprint(v)
}
