package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/cliutil"
)

type columnRow struct {
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Present  bool   `json:"present"`
}

func newPrintColumnsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "print-columns",
		Short: "Show the custom columns the sync writes and whether the library defines them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			store, err := ctx.store(cfg, logger)
			if err != nil {
				return err
			}
			columns, err := store.Columns(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]columnRow, 0, len(calibre.Columns))
			for _, spec := range calibre.Columns {
				rows = append(rows, columnRow{
					Label:    spec.Label,
					Type:     spec.Type,
					Required: spec.Required,
					Present:  columns.Has(spec.Label),
				})
			}
			if jsonOutput {
				return cliutil.WriteJSON(cmd.OutOrStdout(), rows)
			}

			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{"#" + row.Label, row.Type, yesNo(row.Required), yesNo(row.Present)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cliutil.Table(cliutil.Headers("Column", "Type", "Required", "Present"), table))
			if missing := columns.Missing(); len(missing) > 0 {
				fmt.Fprintf(out, "Create the missing required columns in Calibre (Preferences > Add your own columns) before running sync.\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
