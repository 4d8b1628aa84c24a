package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// rootCmd is the base command. Invoked without a subcommand it starts the
// server.
var rootCmd = &cobra.Command{
	Use:   "tripsplitd",
	Short: "tripsplitd - group trip expense sharing server",
	Long: `tripsplitd is the backend for shared trip budgets: members post expenses
against a trip, the server tracks who paid what, and balances settle through
peer-to-peer payments the receiver confirms.`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
