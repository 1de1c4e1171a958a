package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/resolution"
)

func newBatchResolveCommand(ctx *commandContext) *cobra.Command {
	var flags sourceFlags
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "batch-resolve",
		Short: "Apply every decision in a mapping file",
		Long: "Apply decisions from a mapping CSV with columns asin, calibre_id,\n" +
			"calibre_title and audible_only. Rows are independent: a rejected row is\n" +
			"reported and the batch continues. Rows with no decision are ignored.\n" +
			"Nothing is written to the library unless --dry-run=false is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := report.ReadMapping(mappingPath)
			if err != nil {
				return err
			}
			pending := make([]pendingEntry, 0, len(rows))
			skipped := 0
			for _, row := range rows {
				if undecided(row) {
					skipped++
					continue
				}
				entry, err := resolution.EntryFromRow(row)
				if err != nil {
					rejected := resolution.RowResult(row, err)
					pending = append(pending, pendingEntry{rejected: &rejected})
					continue
				}
				pending = append(pending, pendingEntry{entry: entry})
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Ignoring %d rows with no decision\n", skipped)
			}
			return runResolutions(cmd, ctx, "batch-resolve", flags, pending)
		},
	}

	cmd.Flags().StringVar(&mappingPath, "mapping-csv", "", "Mapping file (see export-mapping)")
	_ = cmd.MarkFlagRequired("mapping-csv")
	flags.register(cmd)
	return cmd
}

// undecided reports a template row the reviewer left blank.
func undecided(row report.MappingRow) bool {
	return row.CalibreID == "" && row.CalibreTitle == "" && row.AudibleOnly == ""
}
