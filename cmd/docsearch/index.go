package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/config"
	"github.com/f4ah6o/docsearch-go/internal/extractor"
	"github.com/f4ah6o/docsearch-go/internal/pagemap"
	"github.com/f4ah6o/docsearch-go/internal/store"
	"github.com/f4ah6o/docsearch-go/internal/validator"
)

var (
	indexNoProgress   bool
	indexSkipValidate bool
	indexSkipPageMap  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Extract page texts into the search index",
	Long: `Scans content_dir for <Typography> blocks and Markdown pages, writes the
records to the output JSON file (and the SQLite store when configured), and
adds page map entries generated from the pages directory and front matter.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runIndex(cmd.Context(), cfg)
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexNoProgress, "no-progress", false, "disable the progress bar")
	indexCmd.Flags().BoolVar(&indexSkipValidate, "skip-validate", false, "skip validating the generated index")
	indexCmd.Flags().BoolVar(&indexSkipPageMap, "skip-pagemap", false, "do not update the page map")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Extract
	log.Printf("=== Step 1: Extracting texts from %s ===", cfg.ContentDir)
	builder := extractor.New(cfg.ExtractorOptions(verbose))
	if !indexNoProgress && !verbose {
		builder.SetProgress(newProgress())
	}
	res, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	log.Printf("Extracted %d texts from %d files", len(res.Records), res.Files)

	// Step 2: Write
	log.Printf("=== Step 2: Writing %s ===", cfg.Output)
	if err := extractor.WriteJSON(cfg.Output, res.Records); err != nil {
		return err
	}

	if cfg.SQLite != "" {
		log.Printf("=== Step 3: Storing records in %s ===", cfg.SQLite)
		db, err := store.Open(cfg.SQLite)
		if err != nil {
			return fmt.Errorf("failed to open index database: %w", err)
		}
		defer db.Close()
		if err := db.Replace(ctx, res.Records); err != nil {
			return fmt.Errorf("failed to store records: %w", err)
		}
	} else {
		log.Printf("=== Step 3: Skipped SQLite store (sqlite not configured) ===")
	}

	// Step 4: Page map
	if indexSkipPageMap || cfg.PageMap == "" {
		log.Printf("=== Step 4: Skipped page map ===")
	} else {
		log.Printf("=== Step 4: Updating page map %s ===", cfg.PageMap)
		if err := updatePageMap(cfg, res.Pages); err != nil {
			return err
		}
	}

	// Step 5: Validate
	if indexSkipValidate {
		log.Printf("=== Step 5: Skipped validation ===")
		return nil
	}
	log.Printf("=== Step 5: Validating index ===")
	if report := validator.New().Validate(res.Records); !report.OK() {
		return fmt.Errorf("index validation failed with %d errors", len(report.Errors))
	}
	return nil
}

// updatePageMap adds entries generated from the pages directory and from
// Markdown front matter. Existing entries are never replaced.
func updatePageMap(cfg *config.Config, pages []extractor.Page) error {
	table, err := loadPageMap(cfg)
	if err != nil {
		return err
	}

	generated := pagemap.New(table.ContentRoot(), nil)
	if cfg.PagesDir != "" {
		if _, err := os.Stat(cfg.PagesDir); err == nil {
			fromRoutes, err := pagemap.Generate(cfg.PagesDir, table.ContentRoot())
			if err != nil {
				return err
			}
			generated.Merge(fromRoutes)
		} else {
			log.Printf("Warning: pages directory %s not found, skipping route mapping", cfg.PagesDir)
		}
	}
	for _, p := range pages {
		generated.Set(p.File, pagemap.PageInfo{
			Title:   p.Frontmatter.Title,
			Section: p.Frontmatter.Section,
			URL:     p.Frontmatter.URL,
		})
	}

	added := table.Merge(generated)
	log.Printf("Page map: %d entries (%d added)", table.Len(), added)
	if added == 0 {
		return nil
	}
	return table.Save(cfg.PageMap)
}
