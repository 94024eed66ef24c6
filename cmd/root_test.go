package cmd

import (
	"os"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkarvine/bibliofile/internal/config"
)

func resetCmdState(t *testing.T) {
	origOverwrite := config.OverwriteFiles

	t.Cleanup(func() {
		config.OverwriteFiles = origOverwrite
		viper.Reset()
	})

	viper.Reset()
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	originalArgs := os.Args
	os.Args = append([]string{"bibliofile"}, args...)
	t.Cleanup(func() { os.Args = originalArgs })

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("bibliofile"),
		kong.Description("A tool to enrich book metadata from multiple sources into a unified format."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)

	return cli, ctx
}

func TestUpdateGlobalConfig(t *testing.T) {
	resetCmdState(t)

	cli := &CLI{
		Overwrite:    true,
		UpdateCovers: true,
		Library:      false,
		LibraryDB:    "/tmp/bibliofile.db",
		CacheDBFile:  "/tmp/cache.db",
		CacheTTL:     "12h",
	}

	updateGlobalConfig(cli)

	assert.True(t, config.OverwriteFiles)
	assert.True(t, viper.GetBool("covers.update"))
	assert.False(t, viper.GetBool("library.enabled"))
	assert.Equal(t, "/tmp/bibliofile.db", viper.GetString("library.dbfile"))
	assert.Equal(t, "/tmp/cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "12h", viper.GetString("cache.ttl"))
}

func TestEnrichCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "enrich", "-i", "9780553293357", "-o", "books")

	assert.Equal(t, "9780553293357", cli.Enrich.ISBN)
	assert.Equal(t, "books", cli.Enrich.Output)
	assert.True(t, cli.Enrich.DownloadCover)
}

func TestEnrichCommandRequiresISBNOrTitle(t *testing.T) {
	resetCmdState(t)

	cli, ctx := parseCLI(t, "enrich")
	updateGlobalConfig(cli)

	err := ctx.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "an ISBN or a title is required")
}

func TestSeriesCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "series", "Thorgal", "-l", "en", "--max-volumes", "10", "--write-notes")

	assert.Equal(t, "Thorgal", cli.Series.Name)
	assert.Equal(t, "en", cli.Series.Language)
	assert.Equal(t, 10, cli.Series.MaxVolumes)
	assert.True(t, cli.Series.WriteNotes)
	assert.False(t, cli.Series.NoInteractive)
}

func TestCLIDefaultFlags(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "enrich", "-i", "9780553293357")

	assert.False(t, cli.Overwrite, "Overwrite should default to false")
	assert.False(t, cli.UpdateCovers, "UpdateCovers should default to false")
	assert.True(t, cli.Library, "Library should default to true")
	assert.Equal(t, "./bibliofile.db", cli.LibraryDB, "LibraryDB should default to ./bibliofile.db")
	assert.Equal(t, "./cache.db", cli.CacheDBFile, "CacheDBFile should default to ./cache.db")
	assert.Equal(t, "720h", cli.CacheTTL, "CacheTTL should default to 720h")
}

func TestCLIFlagsOverrideDefaults(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t,
		"--overwrite",
		"--update-covers",
		"--library=false",
		"--library-db", "/custom/bibliofile.db",
		"--cache-db-file", "/custom/cache.db",
		"--cache-ttl", "24h",
		"enrich", "-i", "9780553293357")

	assert.True(t, cli.Overwrite, "Overwrite flag should be set")
	assert.True(t, cli.UpdateCovers, "UpdateCovers flag should be set")
	assert.False(t, cli.Library, "Library should be disabled")
	assert.Equal(t, "/custom/bibliofile.db", cli.LibraryDB)
	assert.Equal(t, "/custom/cache.db", cli.CacheDBFile)
	assert.Equal(t, "24h", cli.CacheTTL)
}

func TestInitConfigSetsDefaults(t *testing.T) {
	resetCmdState(t)

	// Set defaults directly without calling initConfig to avoid os.Exit
	viper.SetDefault("MarkdownOutputDir", "./markdown/")
	viper.SetDefault("CoverOutputDir", "./covers/")
	viper.SetDefault("OverwriteFiles", false)
	viper.SetDefault("library.enabled", true)
	viper.SetDefault("library.dbfile", "./bibliofile.db")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h")
	viper.SetDefault("providers.precedence", []string{"googlebooks", "openlibrary", "imslp"})
	viper.SetDefault("matcher.fuzzy_threshold", 0.93)

	assert.Equal(t, "./markdown/", viper.GetString("MarkdownOutputDir"))
	assert.Equal(t, "./covers/", viper.GetString("CoverOutputDir"))
	assert.False(t, viper.GetBool("OverwriteFiles"))
	assert.True(t, viper.GetBool("library.enabled"))
	assert.Equal(t, "./bibliofile.db", viper.GetString("library.dbfile"))
	assert.Equal(t, "./cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "720h", viper.GetString("cache.ttl"))
	assert.Equal(t, []string{"googlebooks", "openlibrary", "imslp"}, viper.GetStringSlice("providers.precedence"))
	assert.InDelta(t, 0.93, viper.GetFloat64("matcher.fuzzy_threshold"), 0.0001)
}

func TestEnvironmentVariableBinding(t *testing.T) {
	resetCmdState(t)

	t.Setenv("GOOGLEBOOKS_API_KEY", "test-api-key")

	// Set up environment variable bindings without calling initConfig
	viper.AutomaticEnv()
	require.NoError(t, viper.BindEnv("GoogleBooksAPIKey", "GOOGLEBOOKS_API_KEY"))

	assert.Equal(t, "test-api-key", viper.GetString("GoogleBooksAPIKey"))
}

func TestInitLogging(t *testing.T) {
	// Should not panic
	require.NotPanics(t, func() {
		initLogging()
	})
}

func TestCommandStructure(t *testing.T) {
	resetCmdState(t)

	cli := &CLI{}

	assert.NotNil(t, cli.Enrich)
	assert.NotNil(t, cli.Series)
	assert.NotNil(t, cli.Ping)
	assert.NotNil(t, cli.Cache.Invalidate)
	assert.NotNil(t, cli.Cache.Stats)
}
