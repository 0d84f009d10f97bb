package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"DOUMonitor/internal/config"
	"DOUMonitor/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "doumonitor",
	Short: "Monitor publications in the Diário Oficial da União",
	Long: `doumonitor watches the DOU on behalf of multiple organizations,
matching each day's publications against their tracked terms and recording
every match exactly once.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Dir)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
