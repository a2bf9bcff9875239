// Package cli implements the sheetdesk command line: the serve command that
// hosts the HTTP surface for the desktop shell, plus operator subcommands
// that talk to the spreadsheet directly.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sheetdesk",
	Short: "Spreadsheet-backed task and branch management",
	Long: `sheetdesk persists branches, tasks, notifications and workload
schedules as rows in a shared spreadsheet and serves them to the desktop
shell over HTTP. Subcommands operate on the same sheet directly.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(notificationCmd)
	rootCmd.AddCommand(workloadCmd)
	rootCmd.AddCommand(metricsCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
