package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <extraction.json|->",
	Short: "Reconcile pre-extracted invoice_data / po_data records",
	Long: `reconcile skips text and structured extraction. The input is a JSON object with
invoice_data and po_data, in the same shape the extractor produces; code fences
and common key synonyms are tolerated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{store: true})
		if err != nil {
			return err
		}
		defer a.close()

		b, err := readInput(args[0])
		if err != nil {
			return err
		}
		x, _, err := llm.DecodeExtraction(b, a.logger)
		if err != nil {
			return err
		}
		return finish(a, a.proc.ReconcileExtraction(ctx, x))
	},
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func init() {
	reconcileCmd.Flags().BoolVar(&failOnReview, "fail-on-review", false, "exit non-zero when the verdict is NEEDS REVIEW")
	rootCmd.AddCommand(reconcileCmd)
}
