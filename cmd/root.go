// Package cmd defines and implements the CLI commands for the ljextractor
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ljextractor",
		Short: "Archives a LiveJournal blog's posts and comments locally.",
		Long: `ljextractor walks a LiveJournal blog's listing pages, fetches every
post and its comment thread under bounded concurrency, and writes per-year
WXR export files plus a flat CSV index. Interrupted runs resume where they
left off.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
