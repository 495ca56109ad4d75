package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vidgen/internal/artifacts"
	"vidgen/internal/fingerprint"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the artifact cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func withStore(ctx *commandContext, fn func(cmd *cobra.Command, store *artifacts.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		store, err := artifacts.Open(cfg.Paths.CacheRoot, cfg.Cache.MaxGiB, ctx.ensureLogger())
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store)
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts",
		RunE: withStore(ctx, func(cmd *cobra.Command, store *artifacts.Store) error {
			items, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(items))
			var total int64
			for _, item := range items {
				total += item.SizeBytes
				rows = append(rows, []string{
					item.Phase,
					fingerprint.Short(item.Fingerprint),
					strconv.Itoa(item.SchemaVersion),
					formatBytes(item.SizeBytes),
					item.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Phase", "Fingerprint", "Schema", "Size", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d artifacts, %s total\n", len(items), formatBytes(total))
			return nil
		}),
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		RunE: withStore(ctx, func(cmd *cobra.Command, store *artifacts.Store) error {
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		}),
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Evict old artifacts until the cache fits its size budget",
		RunE: withStore(ctx, func(cmd *cobra.Command, store *artifacts.Store) error {
			report, err := store.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d artifacts, freed %s (%s in cache)\n",
				report.Evicted, formatBytes(report.FreedBytes), formatBytes(report.TotalBytes))
			return nil
		}),
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
