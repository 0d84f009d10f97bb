package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"DOUMonitor/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync [YYYY-MM-DD]",
	Short: "Run the daily matching batch",
	Long: `Downloads the day's gazette edition and matches it against every
organization's tracked terms. Without an argument, today's date is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	day := time.Now()
	if len(args) > 0 {
		parsed, err := time.ParseInLocation("2006-01-02", args[0], cfg.Sync.Location())
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", args[0], err)
		}
		day = parsed
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer application.Close()

	if err := application.RunSync(ctx, day); err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	return nil
}
