package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/bookscan/internal/cache"
	"github.com/lepinkainen/bookscan/internal/config"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

const (
	defaultCacheDB   = "./cache.db"
	defaultCacheTTL  = "720h"
	defaultLibraryDB = "./library.db"
)

// output is where commands print their results
var output io.Writer = os.Stdout

// CLI represents the complete command structure for the bookscan application
type CLI struct {
	// Global flags
	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info" env:"BOOKSCAN_LOG_LEVEL"`
	Overwrite bool   `help:"Overwrite existing notes and covers"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`
	NoCache     bool   `help:"Query the catalog directly without the response cache"`

	// Library flags
	LibraryDB string `help:"Path to library SQLite database file" default:"./library.db"`

	Identify IdentifyCmd `cmd:"" help:"Identify a book from OCR text"`
	Search   SearchCmd   `cmd:"" help:"Search the catalog and list candidate books"`
	Shelf    ShelfCmd    `cmd:"" help:"Manage the finished and favourites shelves"`
	Scan     ScanCmd     `cmd:"" help:"List, show and delete saved scans"`
	Progress ProgressCmd `cmd:"" help:"Record and show reading progress"`
	Library  LibraryCmd  `cmd:"" help:"Index EPUB files into the library"`
	Cache    CacheCmd    `cmd:"" help:"Manage the catalog response cache"`
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API"`
}

// CacheCmd groups the cache maintenance subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Remove every cached entry of a source"`
	Prune      cache.PruneCacheCmd      `cmd:"" help:"Remove expired cache entries"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging("info")
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("bookscan"),
		kong.Description("Identify books from OCR text and keep a small reading library."),
		kong.UsageOnError(),
	)

	initLogging(cli.LogLevel)
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if cerr := cache.ResetGlobalCache(); cerr != nil {
		slog.Warn("Failed to close cache database", "error", cerr)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	config.SetDefaults()

	viper.SetEnvPrefix("BOOKSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Warn("Error writing config file", "error", err)
			}
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

// updateGlobalConfig lets CLI flags override the config file. Flags left at
// their defaults keep the configured values.
func updateGlobalConfig(cli *CLI) {
	if cli.Overwrite {
		viper.Set("OverwriteFiles", true)
	}
	if cli.NoCache {
		viper.Set("cache.enabled", false)
	}
	if cli.CacheDBFile != defaultCacheDB {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != defaultCacheTTL {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
	if cli.LibraryDB != defaultLibraryDB {
		viper.Set("library.dbfile", cli.LibraryDB)
	}

	config.InitConfig()
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func initLogging(level string) {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: parseLogLevel(level),
	})

	slog.SetDefault(slog.New(handler))
}

func printf(format string, args ...any) {
	_, _ = fmt.Fprintf(output, format, args...)
}
