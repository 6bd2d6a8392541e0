// wecare-alerts scores vital-signs readings against each patient's own
// baseline and alerts the patient and their emergency contacts.
//
// Usage:
//
//	wecare-alerts serve    [--config=<path>]
//	wecare-alerts migrate  [--down]
//	wecare-alerts simulate --patient=<id> [--count=1000] [--out=test_results.xlsx]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wecare-alerts",
	Short: "Personalized vital-signs anomaly detection and alerting",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("WECARE_CONFIG"), "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
