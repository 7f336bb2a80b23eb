package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/repository"
)

var (
	listStatus string
	listLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show [comparison-id]",
	Short: "Show a stored comparison, or list recent ones",
	Args:  cobra.MaximumNArgs(1),
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

		if len(args) == 1 {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: comparison id must be a UUID", common.ErrInvalidInput)
			}
			c, err := a.repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			return a.show(os.Stdout, c)
		}

		list, err := a.repo.List(ctx, repository.ListFilter{
			Status: entity.Status(strings.ToUpper(listStatus)),
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}
		if outFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		t := tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"ID", "Created", "Invoice", "PO", "Status", "Mismatches", "Warnings"})
		for _, c := range list {
			t.Append([]string{
				c.ID.String(),
				c.CreatedAt.Format("2006-01-02 15:04"),
				c.Result.InvoiceNumber,
				c.Result.PONumber,
				string(c.Result.Status),
				fmt.Sprint(c.Result.Mismatches()),
				fmt.Sprint(c.Result.Warnings()),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&listStatus, "status", "", "filter the list by APPROVED or NEEDS_REVIEW")
	showCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum comparisons to list")
	rootCmd.AddCommand(showCmd)
}
