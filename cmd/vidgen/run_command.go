package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vidgen/internal/fingerprint"
	"vidgen/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <pdf>",
		Short: "Run the full pipeline for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			orchestrator, store, _, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, runErr := orchestrator.Run(runCtx, args[0])
			printReport(cmd, report)
			return runErr
		},
	}
}

func printReport(cmd *cobra.Command, report *pipeline.RunReport) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	if report.DocumentID != "" {
		fmt.Fprintf(out, "Document: %s\n", report.DocumentID)
	}

	rows := make([][]string, 0, len(report.Phases))
	for _, outcome := range report.Phases {
		detail := outcome.Error
		rows = append(rows, []string{
			string(outcome.Phase),
			string(outcome.Status),
			fingerprint.Short(outcome.Fingerprint),
			outcome.Elapsed.Round(time.Millisecond).String(),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Phase", "Status", "Fingerprint", "Elapsed", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(report.FailedSegments) > 0 {
		fmt.Fprintf(out, "Failed segments: %v\n", report.FailedSegments)
	}
	if report.OutputPath != "" {
		fmt.Fprintf(out, "Output: %s\n", report.OutputPath)
	}
}
