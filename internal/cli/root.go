// Package cli implements the grove command line. Most commands are thin HTTP
// clients against a running `grove serve`; serve itself assembles and runs
// the engine in-process.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grove-app/grove/internal/api"
	"github.com/grove-app/grove/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "grove",
	Short: "Local-first focus and habit engine",
	Long: `grove turns focused time into seeds. Start a focus session, stay on it,
and earn seeds to spend on unlocking restricted apps. Sessions, tasks,
squads and the seed ledger all live locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.grove/config.toml)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the grove version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("grove", api.Version)
	},
}
