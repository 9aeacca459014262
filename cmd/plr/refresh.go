package main

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/playlist-resolver/internal/index"
	"github.com/franz/playlist-resolver/internal/report"
	"github.com/franz/playlist-resolver/internal/store"
	"github.com/franz/playlist-resolver/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the library catalogue",
	Long: `Walk the configured library roots and bring the catalogue up to date.

Files whose modification time is unchanged are skipped, new or modified
files have their tags extracted, and entries for files no longer on disk
are removed. Safe to interrupt: completed batches stay committed.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringSliceP("root", "r", nil, "library root (repeatable, or set roots in config)")
	refreshCmd.Flags().IntP("concurrency", "c", 8, "extraction worker count")
	refreshCmd.Flags().Bool("force", false, "refresh even if the catalogue is fresh")
	refreshCmd.Flags().Duration("max-age", 24*time.Hour, "skip refresh when the catalogue is younger than this (0 always refreshes)")
	viper.BindPFlag("roots", refreshCmd.Flags().Lookup("root"))
	viper.BindPFlag("concurrency", refreshCmd.Flags().Lookup("concurrency"))
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	roots := GetConfigStringSlice("roots")
	if len(roots) == 0 {
		return fmt.Errorf("at least one library root is required (use --root/-r or set roots in config)")
	}

	dbPath := viper.GetString("db")
	util.InfoLog("Opening catalogue: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	refresher := index.New(&index.Config{
		Store:       db,
		Roots:       roots,
		Concurrency: GetConfigInt("concurrency", 8),
		Logger:      logger,
	})

	force, _ := cmd.Flags().GetBool("force")
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	if !force && maxAge > 0 {
		stale, err := refresher.NeedsRefresh(maxAge)
		if err != nil {
			return err
		}
		if !stale {
			last, _ := refresher.LastRefresh()
			util.SuccessLog("Catalogue is fresh (last refresh %s), skipping. Use --force to refresh anyway.",
				last.Format(time.RFC3339))
			return nil
		}
	}

	start := time.Now()
	result, err := refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	util.InfoLog("")
	util.SuccessLog("=== Refresh Summary ===")
	util.InfoLog("Total time: %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("  Files seen: %d", result.FilesSeen)
	util.InfoLog("  Extracted: %d", result.FilesExtracted)
	util.InfoLog("  Unchanged: %d", result.FilesSkipped)
	util.InfoLog("  Purged: %d", result.FilesPurged)
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
	}

	total, err := db.CountTracks()
	if err == nil {
		util.InfoLog("Catalogue now holds %d tracks", total)
	}

	return nil
}

// newEventLogger creates the JSONL event logger honoring verbosity flags
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(GetConfigString("artifacts", "artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}
