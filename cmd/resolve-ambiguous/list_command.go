package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/cliutil"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
)

func newListCommand() *cobra.Command {
	var ambiguousPath string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "list",
		Short:       "Show audiobooks awaiting a decision",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := report.ReadAmbiguous(ambiguousPath)
			if err != nil {
				return err
			}
			total := len(entries)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if jsonOutput {
				return cliutil.WriteJSON(cmd.OutOrStdout(), entries)
			}

			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintln(out, "No ambiguous audiobooks")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				candidates := make([]string, 0, len(entry.Candidates))
				for _, c := range entry.Candidates {
					candidates = append(candidates, fmt.Sprintf("#%d %s (%d)", c.LibraryID, c.Title, c.Score))
				}
				rows = append(rows, []string{entry.ASIN, entry.Title, entry.Authors, fmt.Sprint(entry.TopScore), strings.Join(candidates, "\n")})
			}
			fmt.Fprintln(out, cliutil.Table([]cliutil.Column{
				cliutil.Left("ASIN"), cliutil.Left("Title"), cliutil.Left("Authors"), cliutil.Right("Top"), cliutil.Left("Candidates"),
			}, rows))
			if len(entries) < total {
				fmt.Fprintf(out, "Showing %d of %d entries\n", len(entries), total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ambiguousPath, "ambiguous-csv", "", "ambiguous.csv written by calibre-audible-sync")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("ambiguous-csv")
	return cmd
}
