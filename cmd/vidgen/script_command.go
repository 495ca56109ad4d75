package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "script <pdf>",
		Short: "Run the pipeline through narration and voice synthesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			// No renderer wired: the run stops after the scripted phase.
			orchestrator, store, _, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			report, runErr := orchestrator.Run(cmd.Context(), args[0])
			printReport(cmd, report)
			if runErr != nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if len(report.FailedSegments) > 0 {
				fmt.Fprintf(out, "Segments %v exhausted their provider chains; re-run to retry.\n", report.FailedSegments)
			}
			return nil
		},
	}
}
