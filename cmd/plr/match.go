package main

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/playlist-resolver/internal/export"
	"github.com/franz/playlist-resolver/internal/index"
	"github.com/franz/playlist-resolver/internal/match"
	"github.com/franz/playlist-resolver/internal/playlist"
	"github.com/franz/playlist-resolver/internal/report"
	"github.com/franz/playlist-resolver/internal/store"
	"github.com/franz/playlist-resolver/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var matchCmd = &cobra.Command{
	Use:   "match <playlist>",
	Short: "Resolve a playlist against the catalogue",
	Long: `Resolve every entry of a playlist file (m3u/m3u8/txt, json, csv, xlsx)
against the library catalogue.

Each entry goes through exact, structural and scored-fuzzy tiers; entries
the pipeline cannot settle are reviewed interactively, or headlessly with
the --headless policy. Results can be exported as an M3U playlist of
resolved paths, a JSON report, and a SongShift payload of the unresolved
rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("output", "o", "", "write resolved paths as M3U playlist")
	matchCmd.Flags().String("report", "", "write JSON match report")
	matchCmd.Flags().String("songshift", "", "write unresolved queries as SongShift payload")
	matchCmd.Flags().String("service", "qobuz", "service name for the SongShift payload")
	matchCmd.Flags().Bool("headless", false, "resolve reviews without prompting (accept high-confidence, skip the rest)")
	matchCmd.Flags().Bool("refresh", false, "refresh the catalogue before matching")
	matchCmd.Flags().Duration("max-age", 24*time.Hour, "refresh automatically when the catalogue is older than this (0 disables)")
	matchCmd.Flags().Int("threshold", 0, "auto-match score threshold")
	matchCmd.Flags().Int("review-min", 0, "minimum score to queue a candidate for review")
	viper.BindPFlag("threshold", matchCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("review-min", matchCmd.Flags().Lookup("review-min"))
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	playlistPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	reportPath, _ := cmd.Flags().GetString("report")
	songshiftPath, _ := cmd.Flags().GetString("songshift")
	service, _ := cmd.Flags().GetString("service")
	headless, _ := cmd.Flags().GetBool("headless")
	forceRefresh, _ := cmd.Flags().GetBool("refresh")
	maxAge, _ := cmd.Flags().GetDuration("max-age")

	pl, err := playlist.Parse(playlistPath)
	if err != nil {
		return err
	}
	if len(pl.Queries) == 0 {
		return fmt.Errorf("playlist is empty: %s", playlistPath)
	}
	util.InfoLog("Loaded %d entries from %s", len(pl.Queries), pl.Name)

	dbPath := viper.GetString("db")
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	if err := maybeRefresh(ctx, db, logger, forceRefresh, maxAge); err != nil {
		return err
	}

	cfg := matchConfig()
	matcher, err := match.New(db, cfg, logger)
	if err != nil {
		return err
	}

	util.InfoLog("Matching %d entries (threshold %d, review %d)",
		len(pl.Queries), cfg.Threshold, cfg.ReviewMin)

	start := time.Now()
	results, err := matcher.MatchAll(ctx, pl.Queries)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	var resolver match.Resolver
	if headless {
		resolver = &match.AutoResolver{MinScore: cfg.HighConfidence}
	} else {
		resolver = newPromptResolver(cfg.HighConfidence)
	}
	if err := matcher.ResolveReviews(results, resolver); err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	matched, unmatched := 0, 0
	for _, r := range results {
		if r.Status == match.StatusMatched {
			matched++
		} else {
			unmatched++
		}
	}

	util.InfoLog("")
	util.SuccessLog("=== Match Summary ===")
	util.InfoLog("Total time: %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("  Matched: %d/%d", matched, len(results))
	if unmatched > 0 {
		util.WarnLog("  Unmatched: %d", unmatched)
	}

	if outputPath != "" {
		n, err := export.WriteM3U(results, outputPath)
		if err != nil {
			return err
		}
		logger.LogExport(outputPath, n)
		util.SuccessLog("Playlist saved: %s (%d tracks)", outputPath, n)
	}

	if reportPath != "" {
		if err := export.WriteReport(pl.Name, results, reportPath); err != nil {
			return err
		}
		logger.LogExport(reportPath, len(results))
		util.SuccessLog("Report saved: %s", reportPath)
	}

	if songshiftPath != "" {
		n, err := export.WriteSongShift(results, pl.Name, service, songshiftPath)
		if err != nil {
			return err
		}
		logger.LogExport(songshiftPath, n)
		util.SuccessLog("SongShift payload saved: %s (%d tracks)", songshiftPath, n)
	}

	return nil
}

// maybeRefresh runs a catalogue refresh when forced or when the last one
// is older than maxAge. Requires configured roots; without roots a stale
// catalogue is only warned about.
func maybeRefresh(ctx context.Context, db *store.Store, logger *report.EventLogger, force bool, maxAge time.Duration) error {
	roots := GetConfigStringSlice("roots")

	refresher := index.New(&index.Config{
		Store:       db,
		Roots:       roots,
		Concurrency: GetConfigInt("concurrency", 8),
		Logger:      logger,
	})

	stale := force
	if !stale && maxAge > 0 {
		needed, err := refresher.NeedsRefresh(maxAge)
		if err != nil {
			return err
		}
		stale = needed
	}
	if !stale {
		return nil
	}

	if len(roots) == 0 {
		if force {
			return fmt.Errorf("refresh requested but no library roots configured")
		}
		util.WarnLog("Catalogue is stale but no library roots are configured, matching against existing state")
		return nil
	}

	if _, err := refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}
