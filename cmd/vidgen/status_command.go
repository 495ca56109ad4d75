package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"vidgen/internal/artifacts"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration paths and cache usage",
		RunE: withStore(ctx, func(cmd *cobra.Command, store *artifacts.Store) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache root:  %s\n", cfg.Paths.CacheRoot)
			fmt.Fprintf(out, "Output dir:  %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "Log dir:     %s\n", cfg.Paths.LogDir)

			items, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			sizes := make(map[string]int64)
			var total int64
			for _, item := range items {
				counts[item.Phase]++
				sizes[item.Phase] += item.SizeBytes
				total += item.SizeBytes
			}

			phases := make([]string, 0, len(counts))
			for phase := range counts {
				phases = append(phases, phase)
			}
			sort.Strings(phases)

			rows := make([][]string, 0, len(phases))
			for _, phase := range phases {
				rows = append(rows, []string{
					phase,
					strconv.Itoa(counts[phase]),
					formatBytes(sizes[phase]),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Phase", "Artifacts", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Total cached: %s (budget %d GiB)\n", formatBytes(total), cfg.Cache.MaxGiB)
			return nil
		}),
	}
}
