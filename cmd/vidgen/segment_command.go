package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidgen/internal/docparse"
	"vidgen/internal/outline"
	"vidgen/internal/segment"
)

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "segment <pdf>",
		Short: "Produce and display the narrative outline for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			gw, err := buildGateway(cfg, logger)
			if err != nil {
				return err
			}

			doc, err := docparse.New(logger).Parse(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := segment.New(gw, logger).Segment(cmd.Context(), doc, nil, cfg)
			if err != nil {
				return err
			}
			printOutline(cmd, result)
			return nil
		},
	}
}

func printOutline(cmd *cobra.Command, o *outline.Outline) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Outline for %s (%d segments)\n", o.Title, len(o.Segments))

	rows := make([][]string, 0, len(o.Segments))
	for _, seg := range o.Segments {
		rows = append(rows, []string{
			strconv.Itoa(seg.Index),
			seg.Title,
			fmt.Sprintf("%d-%d", seg.PageStart, seg.PageEnd),
			strings.Join(seg.Keywords, ", "),
			describeVisuals(seg.Visuals),
			string(seg.Style),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Pages", "Keywords", "Visuals", "Style"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func describeVisuals(visuals []outline.VisualAssignment) string {
	parts := make([]string, 0, len(visuals))
	for _, v := range visuals {
		parts = append(parts, fmt.Sprintf("%s:%s", v.Kind, v.SourceID))
	}
	return strings.Join(parts, ", ")
}
