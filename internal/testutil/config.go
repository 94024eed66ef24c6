package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/tkarvine/bibliofile/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OverwriteFiles    bool
	GoogleBooksAPIKey string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles:    config.OverwriteFiles,
		GoogleBooksAPIKey: config.GoogleBooksAPIKey,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
	config.GoogleBooksAPIKey = state.GoogleBooksAPIKey
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()

	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig sets up a test configuration with common defaults.
// It saves the current state and restores it when the test completes.
func SetTestConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()

	viper.Reset()

	config.OverwriteFiles = true
	config.GoogleBooksAPIKey = "test-googlebooks-key"

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// Note: viper doesn't have an Unset function, so we can't
		// restore the "unset" state. This is a known limitation.
	})
}

// SetupTestCache configures viper for test caching with a temporary directory.
// It creates the cache directory and sets up viper configuration.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	env.MkdirAll("cache")

	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")

	return cacheDir
}

// SetupLibraryDB configures the library database for E2E tests.
// It creates a temporary database file and configures viper with automatic
// cleanup. Returns the database path.
func SetupLibraryDB(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("library.db")

	SetViperValue(t, "library.enabled", true)
	SetViperValue(t, "library.dbfile", dbPath)

	return dbPath
}

// SetupE2EMarkdownOutput configures markdown output directory for E2E tests.
// It sets the markdown output directory to the test environment and configures cleanup.
func SetupE2EMarkdownOutput(t *testing.T, env *TestEnv) {
	t.Helper()

	SetViperValue(t, "markdownoutputdir", env.RootDir())
}
