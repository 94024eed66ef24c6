package cache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: googlebooks, openlibrary, imslp, cover" required:""`
}

var invalidateSources = map[string]bool{
	"googlebooks": true,
	"openlibrary": true,
	"imslp":       true,
	"cover":       true,
}

func (i *InvalidateCacheCmd) Run() error {
	if !invalidateSources[i.Source] {
		return fmt.Errorf("invalid cache source '%s'; valid sources are: googlebooks, openlibrary, imslp, cover", i.Source)
	}

	slog.Info("Invalidating cache", "source", i.Source, "database", viper.GetString("cache.dbfile"))

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	rowsDeleted, err := cacheInstance.InvalidateSource(i.Source + "_cache")
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", rowsDeleted)
	return nil
}

// StatsCacheCmd represents the cache stats subcommand
type StatsCacheCmd struct{}

func (s *StatsCacheCmd) Run() error {
	slog.Info("Cache statistics", "database", viper.GetString("cache.dbfile"))

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	for _, st := range cacheInstance.Stats() {
		if st.Rows == 0 {
			slog.Info("Cache table", "table", st.Table, "rows", 0)
			continue
		}
		slog.Info("Cache table",
			"table", st.Table,
			"rows", st.Rows,
			"oldest", st.Oldest.Format(time.RFC3339),
			"age", time.Since(st.Oldest).Round(time.Minute).String())
	}
	return nil
}
