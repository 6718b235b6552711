package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the shokuhi database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		dbPath := s.dbPath
		// sqlite3 needs the file to itself.
		s.Close()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the stored catalog.",
	Long:  "Prints record counts and ingest metadata of the stored catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if s.svc.Degraded() {
			return fmt.Errorf("database unavailable: %s", s.dbPath)
		}

		meta, err := s.svc.Metadata(cmd.Context())
		if err != nil {
			return err
		}
		if meta == nil {
			fmt.Println("No catalog in the database yet.")
			return nil
		}
		counts := s.svc.Counts(cmd.Context())
		if counts == nil {
			return fmt.Errorf("could not count stored records")
		}
		if err := s.svc.Favorites().Load(cmd.Context()); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "DATABASE\t%s\t\n", s.dbPath)
		fmt.Fprintf(w, "SCHEMA VERSION\t%d\t\n", meta.SchemaVersion)
		fmt.Fprintf(w, "PROVENANCE\t%s\t\n", meta.Provenance)
		fmt.Fprintf(w, "LAST INGESTED\t%s\t\n", meta.LastIngestedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "INGEST ID\t%s\t\n", meta.IngestID)
		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "PRODUCTS\t%d\t\n", counts.Products)
		fmt.Fprintf(w, "ITEMS\t%d\t\n", counts.Items)
		fmt.Fprintf(w, "FAVORITES\t%d\t\n", s.svc.Favorites().Count())
		w.Flush()

		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored catalog (favorites are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.svc.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Catalog cleared. The sample catalog will be loaded on next use.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(clearCmd)
}
