package main

import (
	"fmt"
	"time"

	"github.com/franz/playlist-resolver/internal/index"
	"github.com/franz/playlist-resolver/internal/store"
	"github.com/franz/playlist-resolver/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show catalogue statistics and recent tracks",
	Long: `Display the state of the library catalogue: track count, last refresh
time, and the most recently modified tracks.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntP("recent", "n", 10, "number of recent tracks to list")
}

func runShow(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	recentN, _ := cmd.Flags().GetInt("recent")

	dbPath := viper.GetString("db")
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer db.Close()

	total, err := db.CountTracks()
	if err != nil {
		return fmt.Errorf("failed to count tracks: %w", err)
	}

	util.InfoLog("=== Catalogue ===")
	util.InfoLog("Database: %s", dbPath)
	util.InfoLog("Tracks: %d", total)

	refresher := index.New(&index.Config{Store: db})
	if last, err := refresher.LastRefresh(); err == nil {
		if last.IsZero() {
			util.WarnLog("Never refreshed. Run 'plr refresh' first.")
		} else {
			util.InfoLog("Last refresh: %s (%v ago)",
				last.Format(time.RFC1123), time.Since(last).Round(time.Second))
		}
	}

	if recentN <= 0 || total == 0 {
		return nil
	}

	recent, err := db.Recent(recentN)
	if err != nil {
		return fmt.Errorf("failed to list recent tracks: %w", err)
	}

	fmt.Println()
	util.InfoLog("Most recently modified:")
	for _, t := range recent {
		label := t.Title
		if t.Artist != "" {
			label = t.Artist + " - " + label
		}
		fmt.Printf("  %s  %s\n", time.Unix(t.MtimeUnix, 0).Format("2006-01-02 15:04"), label)
		if viper.GetBool("verbose") {
			fmt.Printf("      %s\n", t.Path)
		}
	}

	return nil
}
