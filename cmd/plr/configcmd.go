package main

import (
	"strings"

	"github.com/franz/playlist-resolver/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration plr will run with, after merging defaults,
the config file, PLR_* environment variables and command-line flags.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Effective Configuration ===")
	if used := viper.ConfigFileUsed(); used != "" {
		util.InfoLog("Config file: %s", used)
	} else {
		util.InfoLog("Config file: (none)")
	}
	util.InfoLog("")

	roots := GetConfigStringSlice("roots")
	if len(roots) == 0 {
		util.InfoLog("  roots: (not set)")
	} else {
		util.InfoLog("  roots: %s", strings.Join(roots, ", "))
	}
	util.InfoLog("  db: %s", viper.GetString("db"))
	util.InfoLog("  artifacts: %s", GetConfigString("artifacts", "artifacts"))
	util.InfoLog("  concurrency: %d", GetConfigInt("concurrency", 8))
	util.InfoLog("")

	mc := matchConfig()
	util.InfoLog("  threshold: %d", mc.Threshold)
	util.InfoLog("  review-min: %d", mc.ReviewMin)
	util.InfoLog("  high-confidence: %d", mc.HighConfidence)
	util.InfoLog("  overlap-reject: %.2f", mc.OverlapReject)
	util.InfoLog("  overlap-review: %.2f", mc.OverlapReview)
	util.InfoLog("  max-alternatives: %d", mc.MaxAlternatives)

	return nil
}
