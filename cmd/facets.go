package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wakamono/shokuhi/internal/utils"
)

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Print the catalog's categories and price bounds",
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

		facets := s.svc.Facets()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(facets)
		}

		fmt.Printf("Price: %s - %s\n", utils.FormatPrice(facets.Price.Min), utils.FormatPrice(facets.Price.Max))
		fmt.Println("Categories:")
		for _, c := range facets.Categories {
			fmt.Printf("  %s\n", c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(facetsCmd)
	facetsCmd.Flags().Bool("json", false, "Print JSON")
}
