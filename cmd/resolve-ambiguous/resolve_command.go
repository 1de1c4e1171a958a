package main

import (
	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/resolution"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var flags sourceFlags
	var entry resolution.Entry

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Apply one decision",
		Long:  "Apply one decision. Runs as a dry run unless --dry-run=false is given.",
		Example: "  resolve-ambiguous resolve --asin B002 --calibre-id 8 --audible-csv library.csv --dry-run=false\n" +
			"  resolve-ambiguous resolve --asin B003 --audible-only --audible-csv library.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolutions(cmd, ctx, "resolve", flags, []pendingEntry{{entry: entry}})
		},
	}

	cmd.Flags().StringVar(&entry.ASIN, "asin", "", "Audible ASIN to resolve")
	cmd.Flags().IntVar(&entry.LibraryID, "calibre-id", 0, "Link to the library record with this id")
	cmd.Flags().StringVar(&entry.CalibreTitle, "calibre-title", "", "Link to the single library record with this title")
	cmd.Flags().BoolVar(&entry.AudibleOnly, "audible-only", false, "Record the audiobook as Audible only with a placeholder")
	cmd.MarkFlagsMutuallyExclusive("calibre-id", "calibre-title", "audible-only")
	cmd.MarkFlagsOneRequired("calibre-id", "calibre-title", "audible-only")
	_ = cmd.MarkFlagRequired("asin")
	flags.register(cmd)
	return cmd
}
