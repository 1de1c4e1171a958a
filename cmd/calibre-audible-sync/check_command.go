package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/cliutil"
	"github.com/bergsfam/calibre-audible-integration/internal/preflight"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

const schemaCheckName = "Custom columns"

type checkRow struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify calibredb, the library directories, and the custom column schema",
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

			results := preflight.RunAll(cmd.Context(), cfg, store)
			if jsonOutput {
				rows := make([]checkRow, 0, len(results))
				for _, r := range results {
					rows = append(rows, checkRow{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
				}
				if err := cliutil.WriteJSON(cmd.OutOrStdout(), rows); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			return checkError(results)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// checkError reports a schema failure with its own exit code; any other
// failure is a configuration problem.
func checkError(results []preflight.Result) error {
	for _, r := range results {
		if r.Name == schemaCheckName && !r.Passed {
			return preflight.SchemaError(r)
		}
	}
	if err := preflight.Failures(results); err != nil {
		return services.Wrap(services.ErrConfiguration, "check", "", "", err)
	}
	return nil
}
