package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/report"
)

func newExportMappingCommand() *cobra.Command {
	var ambiguousPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:         "export-mapping",
		Short:       "Write a mapping template for batch-resolve",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := report.ReadAmbiguous(ambiguousPath)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = filepath.Join(filepath.Dir(ambiguousPath), report.DefaultMappingFile)
			}
			if err := report.WriteMappingTemplate(target, entries); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d entries to %s\n", len(entries), target)
			fmt.Fprintln(out, "Fill in one of calibre_id, calibre_title or audible_only per row, then run batch-resolve.")
			return nil
		},
	}

	cmd.Flags().StringVar(&ambiguousPath, "ambiguous-csv", "", "ambiguous.csv written by calibre-audible-sync")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Template path (default mapping_template.csv beside the report)")
	_ = cmd.MarkFlagRequired("ambiguous-csv")
	return cmd
}
