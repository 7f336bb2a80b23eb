package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	variant   string
	currency  string
	outFormat string
	noPersist bool
)

var rootCmd = &cobra.Command{
	Use:   "pomatch",
	Short: "Check supplier invoices against their purchase orders",
	Long: `pomatch extracts an invoice and a purchase order, reconciles PO number, vendor,
total and line items, and prints a checklist with an approve / needs-review verdict.

Examples:
  pomatch compare acme_invoice.pdf acme_po.pdf
  pomatch reconcile extraction.json --variant lenient
  pomatch watch ./inbox
  pomatch show 6f1c... --format json
  pomatch export 6f1c... -o report.xlsx`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "optional YAML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&variant, "variant", "", "reconciliation variant: strict or lenient (overrides config)")
	pf.StringVar(&currency, "currency", "", "currency label for amounts (overrides config)")
	pf.StringVar(&outFormat, "format", "text", "report format: text or json")
	pf.BoolVar(&noPersist, "no-store", false, "do not save comparisons even when a store is configured")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
