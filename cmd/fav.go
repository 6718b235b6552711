package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Manage favorite products",
}

var favToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add a product to favorites, or remove it if already there",
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

		if _, _, ok := s.svc.Product(args[0]); !ok {
			return fmt.Errorf("product not found: %s", args[0])
		}
		if s.svc.Favorites().Toggle(cmd.Context(), args[0]) {
			fmt.Printf("Added %s to favorites\n", args[0])
		} else {
			fmt.Printf("Removed %s from favorites\n", args[0])
		}
		return nil
	},
}

var favListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite product ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		// Bootstrap loads favorites too; a missing catalog only loses the names.
		if _, err := s.svc.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		for _, id := range s.svc.Favorites().List() {
			if p, _, ok := s.svc.Product(id); ok {
				fmt.Printf("%s\t%s\n", id, p.Name)
			} else {
				fmt.Println(id)
			}
		}
		return nil
	},
}

var favClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every favorite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		favs := s.svc.Favorites()
		if err := favs.Load(cmd.Context()); err != nil {
			return err
		}
		n := favs.Count()
		favs.Clear(cmd.Context())
		fmt.Printf("Removed %d favorites\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favCmd)
	favCmd.AddCommand(favToggleCmd)
	favCmd.AddCommand(favListCmd)
	favCmd.AddCommand(favClearCmd)
}
