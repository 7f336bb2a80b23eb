package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <comparison-id>",
	Short: "Write a stored comparison to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.requireStore(); err != nil {
			return err
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: comparison id must be a UUID", common.ErrInvalidInput)
		}
		b, err := export.NewService(a.repo, a.format, a.logger).ExportComparisonXLSX(ctx, id)
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = fmt.Sprintf("comparison-%s.xlsx", id)
		}
		if err := os.WriteFile(out, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		a.logger.Info("export.written", "path", out, "bytes", len(b))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default comparison-<id>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
