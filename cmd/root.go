package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/tkarvine/bibliofile/cmd/enrich"
	"github.com/tkarvine/bibliofile/cmd/series"
	"github.com/tkarvine/bibliofile/internal/cache"
	"github.com/tkarvine/bibliofile/internal/config"
	"github.com/tkarvine/bibliofile/internal/providers"
)

var (
	enrichBook     = enrich.EnrichBook
	discoverSeries = series.DiscoverSeries
	defaultClients = providers.DefaultClients
)

// CLI represents the complete command structure for the bibliofile application
type CLI struct {
	// Global flags
	Overwrite    bool `help:"Overwrite existing markdown files when processing"`
	UpdateCovers bool `help:"Re-download cover images even if they already exist"`

	// Library flags
	Library   bool   `help:"Save enriched books to the local library database" default:"true"`
	LibraryDB string `help:"Path to library SQLite database file" default:"./bibliofile.db"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Enrich EnrichCmd `cmd:"" help:"Enrich a book's metadata from all configured sources"`
	Series SeriesCmd `cmd:"" help:"Discover the volumes of a book series"`
	Ping   PingCmd   `cmd:"" help:"Check connectivity to all configured metadata sources"`
	Cache  CacheCmd  `cmd:"" help:"Manage the response cache"`
}

// EnrichCmd represents the enrich command
type EnrichCmd struct {
	ISBN          string `short:"i" help:"ISBN-10 or ISBN-13 of the book"`
	Title         string `short:"t" help:"Title to search for when no ISBN is known"`
	Author        string `short:"a" help:"Author name to disambiguate title searches"`
	Output        string `short:"o" help:"Subdirectory under markdown output directory for book notes" default:"books"`
	DownloadCover bool   `help:"Download the selected cover image next to the note" default:"true"`
}

// SeriesCmd represents the series discovery command
type SeriesCmd struct {
	Name          string `arg:"" help:"Series name to discover volumes for"`
	Language      string `short:"l" help:"Keep only volumes in this ISO 639-1 language"`
	MaxVolumes    int    `help:"Maximum number of volumes to return (0 = no limit)"`
	Output        string `short:"o" help:"Subdirectory under markdown output directory for volume notes" default:"series"`
	WriteNotes    bool   `help:"Write a markdown note per discovered volume" default:"false"`
	NoInteractive bool   `help:"Disable the interactive volume picker" default:"false"`
	ExportJSON    string `help:"Write the discovered volume listing to a JSON file" placeholder:"FILE"`
}

// PingCmd represents the ping command
type PingCmd struct{}

// CacheCmd groups cache management subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Clear cached responses for one source"`
	Stats      cache.StatsCacheCmd      `cmd:"" help:"Show per-table cache entry counts and ages"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("bibliofile"),
		kong.Description("A tool to enrich book metadata from multiple sources into a unified format."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("MarkdownOutputDir", "./markdown/")
	viper.SetDefault("CoverOutputDir", "./covers/")
	viper.SetDefault("OverwriteFiles", false)

	// Library defaults
	viper.SetDefault("library.enabled", true)
	viper.SetDefault("library.dbfile", "./bibliofile.db")

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Provider defaults
	viper.SetDefault("providers.precedence", []string{"googlebooks", "openlibrary", "imslp"})
	viper.SetDefault("matcher.fuzzy_threshold", 0.93)

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("GoogleBooksAPIKey", "GOOGLEBOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetOverwriteFiles(cli.Overwrite)

	viper.Set("covers.update", cli.UpdateCovers)

	viper.Set("library.enabled", cli.Library)
	viper.Set("library.dbfile", cli.LibraryDB)

	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run methods for each command

func (e *EnrichCmd) Run() error {
	isbn := e.ISBN
	if isbn == "" {
		isbn = viper.GetString("enrich.isbn")
	}

	if isbn == "" && e.Title == "" {
		return fmt.Errorf("an ISBN or a title is required (provide via --isbn or --title)")
	}

	return enrichBook(context.Background(), enrich.Params{
		ISBN:          isbn,
		Title:         e.Title,
		Author:        e.Author,
		Output:        e.Output,
		DownloadCover: e.DownloadCover,
		UpdateCovers:  viper.GetBool("covers.update"),
	})
}

func (s *SeriesCmd) Run() error {
	return discoverSeries(context.Background(), series.Params{
		Name:        s.Name,
		Language:    s.Language,
		MaxVolumes:  s.MaxVolumes,
		Output:      s.Output,
		WriteNotes:  s.WriteNotes,
		Interactive: !s.NoInteractive,
		ExportJSON:  s.ExportJSON,
	})
}

func (p *PingCmd) Run() error {
	ctx := context.Background()

	var failures int
	for _, client := range defaultClients() {
		if err := client.Ping(ctx); err != nil {
			slog.Error("Source unreachable", "source", client.Name(), "error", err)
			failures++
			continue
		}
		slog.Info("Source reachable", "source", client.Name())
	}

	if failures > 0 {
		return fmt.Errorf("%d source(s) unreachable", failures)
	}
	return nil
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
