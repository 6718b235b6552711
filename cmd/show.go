package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wakamono/shokuhi/internal/utils"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one product with its line items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.bootstrap(cmd.Context()); err != nil {
			return err
		}

		p, categories, ok := s.svc.Product(args[0])
		if !ok {
			return fmt.Errorf("product not found: %s", args[0])
		}

		fav := ""
		if s.svc.Favorites().IsFavorite(p.ID) {
			fav = " (favorite)"
		}
		fmt.Printf("%s%s\n", p.Name, fav)
		fmt.Printf("ID:         %s\n", p.ID)
		fmt.Printf("Categories: %s\n", strings.Join(categories, ", "))
		fmt.Printf("Total:      %s (items add up to %s)\n", utils.FormatPrice(p.Totals.Float()), utils.FormatPrice(p.ComputedTotal()))
		if p.Detail != "" {
			fmt.Printf("Detail:     %s\n", p.Detail)
		}
		if p.DetailURL != "" {
			fmt.Printf("URL:        %s\n", p.DetailURL)
		}
		if len(p.Items) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ITEM\tPRICE\tAMOUNT\tSUBTOTAL\t")
		for _, it := range p.Items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t\n", it.Name, utils.FormatPrice(it.Price.Float()), it.Amount, utils.FormatPrice(it.Subtotal()))
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
