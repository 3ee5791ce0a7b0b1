package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/spf13/cobra"
)

func contractsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Work with contracts",
	}
	cmd.AddCommand(contractsListCmd(), contractsPDFCmd())
	return cmd
}

func contractsListCmd() *cobra.Command {
	var params contracts.ListParams
	var contractType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Type = contracts.Type(strings.ToUpper(contractType))
			if params.Type != "" && !params.Type.Valid() {
				return fmt.Errorf("unknown contract type %q", contractType)
			}
			return withApp(func(_ config.Config, a *app) error {
				if err := requireSession(cmd.Context(), a); err != nil {
					return err
				}
				page, err := a.contracts.List(cmd.Context(), params)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDOC NO\tTYPE\tPARTIES\tPRICE\tPERIOD\tSTATUS")
				for i := range page.Contracts {
					c := &page.Contracts[i]
					fmt.Fprintf(w, "%d\t%s\t%s\t%s / %s\t%s\t%s\t%s\n",
						c.ID, c.DocNo, contracts.TypeLabel(c.Type), c.SellerName, c.BuyerName,
						contracts.FormatPrice(c), contracts.Period(c),
						contracts.StatusBadge(c.EffectiveStatus(time.Now())).Label)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d total\n", page.Page, page.Pages, page.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.PerPage, "per-page", contracts.DefaultPerPage, "results per page")
	cmd.Flags().StringVarP(&params.Query, "query", "q", "", "search parties, address and document number")
	cmd.Flags().StringVar(&contractType, "type", "", "SALE, JEONSE or WOLSE")
	return cmd
}

func contractsPDFCmd() *cobra.Command {
	var (
		out     string
		preview bool
	)
	cmd := &cobra.Command{
		Use:   "pdf ID",
		Short: "Download a contract document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid contract id %q", args[0])
			}
			if out == "" {
				out = fmt.Sprintf("contract-%d.pdf", id)
			}
			return withApp(func(_ config.Config, a *app) error {
				if err := requireSession(cmd.Context(), a); err != nil {
					return err
				}
				var body []byte
				if preview {
					body, err = a.contracts.PDFPreview(cmd.Context(), id, true, true)
				} else {
					body, err = a.contracts.PDF(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, body, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", out, len(body))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().BoolVar(&preview, "preview", false, "render a preview with signatures and stamps")
	return cmd
}
