package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

var failOnReview bool

// errNeedsReview makes the process exit non-zero without printing usage.
var errNeedsReview = errors.New("comparison needs review")

var compareCmd = &cobra.Command{
	Use:   "compare <invoice-file> <po-file>",
	Short: "Extract an invoice and a purchase order and reconcile them",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, appOptions{extraction: true, store: true})
		if err != nil {
			return err
		}
		defer a.close()

		c, err := a.proc.Compare(ctx, args[0], args[1])
		if err != nil {
			var se *common.StructuredExtractionError
			if errors.As(err, &se) {
				printRawResponse(os.Stderr, se.Raw, verbose)
			}
			return err
		}
		return finish(a, c)
	},
}

const rawResponsePreview = 1000

// printRawResponse writes the extractor reply that failed to decode. Without full
// only the first rawResponsePreview bytes are shown.
func printRawResponse(w io.Writer, raw []byte, full bool) {
	if len(raw) == 0 {
		return
	}
	if !full && len(raw) > rawResponsePreview {
		fmt.Fprintf(w, "raw extractor response (first %d of %d bytes, use --verbose for all):\n%s\n", rawResponsePreview, len(raw), raw[:rawResponsePreview])
		return
	}
	fmt.Fprintf(w, "raw extractor response:\n%s\n", raw)
}

func finish(a *app, c *entity.Comparison) error {
	if err := a.show(os.Stdout, c); err != nil {
		return err
	}
	if failOnReview && c.Result.Status == entity.StatusNeedsReview {
		return errNeedsReview
	}
	return nil
}

func init() {
	compareCmd.Flags().BoolVar(&failOnReview, "fail-on-review", false, "exit non-zero when the verdict is NEEDS REVIEW")
	rootCmd.AddCommand(compareCmd)
}
