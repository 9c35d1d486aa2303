package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/config"
	"github.com/f4ah6o/docsearch-go/internal/pagemap"
	"github.com/f4ah6o/docsearch-go/internal/search"
	"github.com/f4ah6o/docsearch-go/internal/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Full-text search and highlight navigation for the tutorial site",
	Long: `docsearch extracts the text of every <Typography> block and Markdown page
into public/typographyTexts.json, searches it, and serves the exported site so
that following a search result highlights the matching text on its page.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadPageMap reads the page map. A missing file yields an empty table, in
// which case every result is inert.
func loadPageMap(cfg *config.Config) (*pagemap.Table, error) {
	if cfg.PageMap == "" {
		return pagemap.New(cfg.ContentRoot, nil), nil
	}
	table, err := pagemap.Load(cfg.PageMap)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: page map %s not found, results will not link to pages", cfg.PageMap)
		return pagemap.New(cfg.ContentRoot, nil), nil
	}
	return table, err
}

// openIndex returns the search index, backed by the SQLite store when
// useSQLite is set. The returned close function releases the store.
func openIndex(cfg *config.Config, useSQLite bool) (*search.Index, func(), error) {
	if useSQLite {
		if cfg.SQLite == "" {
			return nil, nil, fmt.Errorf("sqlite path is not configured")
		}
		db, err := store.Open(cfg.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open index database: %w", err)
		}
		return search.NewIndex(db), func() { db.Close() }, nil
	}
	return search.NewIndex(search.NewLoader(cfg.IndexLocation())), func() {}, nil
}
