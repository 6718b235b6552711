package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wakamono/shokuhi/pkg/loader"
)

// loadCmd replaces the stored catalog with a document from a file or URL.
var loadCmd = &cobra.Command{
	Use:   "load <file|url>",
	Short: "Replace the catalog with a JSON catalog document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceFor(args[0])
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.svc.IngestFrom(cmd.Context(), src); err != nil {
			return err
		}
		snap := s.svc.Snapshot()
		items := 0
		for _, p := range snap.Products {
			items += len(p.Items)
		}
		fmt.Printf("Loaded %d products (%d items) from %s\n", len(snap.Products), items, src)
		if s.svc.Degraded() {
			fmt.Println("Storage is unavailable: the catalog was not saved.")
		}
		return nil
	},
}

func sourceFor(arg string) (loader.Source, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return loader.NewHTTP(arg, viper.GetInt("http.retries"), viper.GetString("http.proxy"))
	}
	return loader.File{Path: arg}, nil
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
