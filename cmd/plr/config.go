package main

import (
	"github.com/franz/playlist-resolver/internal/match"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (PLR_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigFloat retrieves a float config value with proper precedence
func GetConfigFloat(key string, defaultValue float64) float64 {
	val := viper.GetFloat64(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigStringSlice retrieves a string slice config value
func GetConfigStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// matchConfig assembles the matching configuration from flags, env and
// config file, starting from the tuned defaults
func matchConfig() *match.Config {
	cfg := match.DefaultConfig()
	cfg.Threshold = GetConfigInt("threshold", cfg.Threshold)
	cfg.ReviewMin = GetConfigInt("review-min", cfg.ReviewMin)
	cfg.HighConfidence = GetConfigInt("high-confidence", cfg.HighConfidence)
	cfg.OverlapReject = GetConfigFloat("overlap-reject", cfg.OverlapReject)
	cfg.OverlapReview = GetConfigFloat("overlap-review", cfg.OverlapReview)
	cfg.MaxAlternatives = GetConfigInt("max-alternatives", cfg.MaxAlternatives)
	return cfg
}
