package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wakamono/shokuhi/internal/utils"
	"github.com/wakamono/shokuhi/pkg/query"
)

// listCmd implements: shokuhi list
// Flags:
//
//	--category string   Exact category to keep
//	--min, --max float  Inclusive price bounds (default: the catalog's bounds)
//	--search string     Case-insensitive text to look for
//	--favorites         Only favorites
//	--sort string       name_asc, name_desc, price_asc, price_desc, category_asc, category_desc
//	--json              Print JSON instead of a table
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products matching the given filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.bootstrap(cmd.Context()); err != nil {
			return err
		}

		f, key := s.svc.ResetFilter()
		f.Category, _ = cmd.Flags().GetString("category")
		f.SearchText, _ = cmd.Flags().GetString("search")
		f.FavoritesOnly, _ = cmd.Flags().GetBool("favorites")
		if cmd.Flags().Changed("min") {
			f.PriceRange[0], _ = cmd.Flags().GetFloat64("min")
		}
		if cmd.Flags().Changed("max") {
			f.PriceRange[1], _ = cmd.Flags().GetFloat64("max")
		}
		if sortFlag, _ := cmd.Flags().GetString("sort"); sortFlag != "" {
			key = query.SortKey(sortFlag)
			if _, ok := query.ParseSortKey(sortFlag); !ok {
				utils.Log.Warnf("Unknown sort order %q, keeping catalog order", sortFlag)
			}
		}

		products := s.svc.Query(f, key)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(products)
		}

		if len(products) == 0 {
			fmt.Println("No products match.")
			return nil
		}

		favs := s.svc.Favorites()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "FAV\tID\tNAME\tCATEGORY\tTOTAL\tITEMS\t")
		for _, p := range products {
			star := ""
			if favs.IsFavorite(p.ID) {
				star = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t\n", star, p.ID, p.Name, p.Category, utils.FormatPrice(p.Totals.Float()), len(p.Items))
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	var keys []string
	for _, k := range query.SortKeys {
		keys = append(keys, string(k))
	}
	listCmd.Flags().String("category", "", "Only products in this exact category")
	listCmd.Flags().Float64("min", 0, "Minimum total price (inclusive)")
	listCmd.Flags().Float64("max", 0, "Maximum total price (inclusive)")
	listCmd.Flags().StringP("search", "s", "", "Case-insensitive text to search in names, ids, details and item names")
	listCmd.Flags().BoolP("favorites", "f", false, "Only favorites")
	listCmd.Flags().String("sort", string(query.DefaultSort), "Sort order. Available: "+strings.Join(keys, ", "))
	listCmd.Flags().Bool("json", false, "Print JSON")
}
