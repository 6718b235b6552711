package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wakamono/shokuhi/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `      _           _          _     _ 
  ___| |__   ___ | | ___   _| |__ (_)
 / __| '_ \ / _ \| |/ / | | | '_ \| |
 \__ \ | | | (_) |   <| |_| | | | | |
 |___/_| |_|\___/|_|\_\\__,_|_| |_|_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shokuhi",
	Short: "A local catalog of grocery bundles you can filter, sort and bookmark.",
	Long: LOGO + `shokuhi keeps a catalog of product bundles and their line items in a local
SQLite database. Load a catalog document, then browse it with filters, sort
orders and favorites, right from your command line.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shokuhi.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy used when fetching remote catalogs (Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/shokuhi/catalog.sqlite)")

	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
	viper.BindPFlag("http.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Defaults go first so a freshly written config file lists every key.
	viper.SetDefault("db.path", "")
	viper.SetDefault("sample.path", "")
	viper.SetDefault("sample.url", "")
	viper.SetDefault("collation.locale", "ja")
	viper.SetDefault("http.retries", 3)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".shokuhi")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("shokuhi")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.shokuhi.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
