package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing markdown files should be overwritten
	OverwriteFiles bool
	// GoogleBooksAPIKey is the API key for the Google Books volumes API
	GoogleBooksAPIKey string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("MarkdownOutputDir", "./markdown/")
	viper.SetDefault("CoverOutputDir", "./covers/")
	viper.SetDefault("OverwriteFiles", false)
	viper.SetDefault("providers.precedence", []string{"googlebooks", "openlibrary", "imslp"})
	viper.SetDefault("matcher.fuzzy_threshold", 0.93)

	// Get values from viper
	OverwriteFiles = viper.GetBool("OverwriteFiles")
	GoogleBooksAPIKey = viper.GetString("GoogleBooksAPIKey")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// ProviderPrecedence returns the configured source precedence for merging
// metadata fields, highest priority first.
func ProviderPrecedence() []string {
	return viper.GetStringSlice("providers.precedence")
}

// FuzzyThreshold returns the configured title similarity threshold for
// fuzzy matching.
func FuzzyThreshold() float64 {
	return viper.GetFloat64("matcher.fuzzy_threshold")
}
