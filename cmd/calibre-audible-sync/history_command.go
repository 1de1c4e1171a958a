package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/cliutil"
	"github.com/bergsfam/calibre-audible-integration/internal/ledger"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asin string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the actions of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return services.Wrap(services.ErrConfiguration, "history", "", "the ledger is disabled (ledger.enabled = false)", nil)
			}
			defer store.Close()

			switch {
			case strings.TrimSpace(asin) != "":
				actions, err := store.ActionsForASIN(cmd.Context(), audible.NormalizeASIN(asin))
				if err != nil {
					return err
				}
				if jsonOutput {
					return cliutil.WriteJSON(cmd.OutOrStdout(), actions)
				}
				printActions(cmd, actions, true)
				return nil
			case len(args) == 1:
				run, err := store.Run(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, services.ErrNotFound) {
						return fmt.Errorf("run %s not found: %w", args[0], err)
					}
					return err
				}
				actions, err := store.Actions(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return cliutil.WriteJSON(cmd.OutOrStdout(), struct {
						Run     ledger.Run      `json:"run"`
						Actions []ledger.Action `json:"actions"`
					}{run, actions})
				}
				printRuns(cmd, []ledger.Run{run})
				printActions(cmd, actions, false)
				return nil
			default:
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return cliutil.WriteJSON(cmd.OutOrStdout(), runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				printRuns(cmd, runs)
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&asin, "asin", "", "Show every recorded action for one ASIN")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []ledger.Run) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		mode := "apply"
		if run.DryRun {
			mode = "dry-run"
		}
		rows = append(rows, []string{
			run.ID,
			run.Command,
			run.StartedAt.Local().Format(time.DateTime),
			mode,
			run.Status,
			fmt.Sprint(run.Audiobooks),
			fmt.Sprint(run.Confident),
			fmt.Sprint(run.Ambiguous),
			fmt.Sprint(run.Unmatched),
			fmt.Sprint(run.Rejected),
			fmt.Sprint(run.Applied),
		})
	}
	columns := append(cliutil.Headers("Run", "Command", "Started", "Mode", "Status"),
		cliutil.Right("Books"), cliutil.Right("Confident"), cliutil.Right("Ambiguous"),
		cliutil.Right("Unmatched"), cliutil.Right("Rejected"), cliutil.Right("Applied"))
	fmt.Fprintln(cmd.OutOrStdout(), cliutil.Table(columns, rows))
}

func printActions(cmd *cobra.Command, actions []ledger.Action, withRun bool) {
	if len(actions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No actions recorded")
		return
	}
	rows := make([][]string, 0, len(actions))
	for _, action := range actions {
		score := ""
		if action.Score != nil {
			score = fmt.Sprint(*action.Score)
		}
		libraryID := ""
		if action.LibraryID > 0 {
			libraryID = fmt.Sprint(action.LibraryID)
		}
		detail := action.Reason
		if action.Error != "" {
			detail = action.Error
		}
		row := []string{action.ASIN, libraryID, action.Kind, action.Method, score, action.State, detail}
		if withRun {
			row = append([]string{action.RunID}, row...)
		}
		rows = append(rows, row)
	}
	columns := []cliutil.Column{
		cliutil.Left("ASIN"), cliutil.Right("Book"), cliutil.Left("Action"), cliutil.Left("Method"),
		cliutil.Right("Score"), cliutil.Left("State"), cliutil.Left("Detail"),
	}
	if withRun {
		columns = append([]cliutil.Column{cliutil.Left("Run")}, columns...)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cliutil.Table(columns, rows))
}
