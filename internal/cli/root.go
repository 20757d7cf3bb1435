package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/logger"
)

var (
	jsonOutput bool
	verbose    bool
	configFile string
	version    = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "Site configuration activation for nginx",
	Long: `sitectl keeps a record of hosted sites and turns each record into a
live nginx configuration.

Activation issues certificates when SSL is enabled, refreshes the site's
application, assembles the server block, dry-runs it with nginx -t and only
then commits it and reloads nginx. Hand edits in the USER section of a
committed configuration are carried over to the next activation.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the site records file (default ~/.config/sitectl/config.yaml)")
}
