package cache

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: openlibrary, covers" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	slog.Info("Invalidating cache", "source", i.Source, "database", viper.GetString("cache.dbfile"))

	tableName, ok := SourceTables[i.Source]
	if !ok {
		return fmt.Errorf("invalid cache source '%s'; valid sources are: %s", i.Source, validSources())
	}

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	rowsDeleted, err := cacheInstance.InvalidateSource(tableName)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", rowsDeleted)
	return nil
}

// PruneCacheCmd removes expired entries from every cache table.
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run() error {
	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	var total int64
	for _, source := range sortedSources() {
		rows, err := cacheInstance.ClearExpired(SourceTables[source])
		if err != nil {
			return fmt.Errorf("failed to prune %s cache: %w", source, err)
		}
		total += rows
	}

	slog.Info("Cache pruned", "rows_deleted", total)
	return nil
}

func sortedSources() []string {
	sources := make([]string, 0, len(SourceTables))
	for source := range SourceTables {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

func validSources() string {
	return strings.Join(sortedSources(), ", ")
}
