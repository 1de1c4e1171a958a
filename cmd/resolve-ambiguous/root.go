package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWithStore(defaultStoreFactory)
}

func newRootCommandWithStore(factory storeFactory) *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag, factory)

	rootCmd := &cobra.Command{
		Use:           "resolve-ambiguous",
		Short:         "Review and resolve ambiguous Audible matches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newBatchResolveCommand(ctx))
	rootCmd.AddCommand(newExportMappingCommand())

	return rootCmd
}
