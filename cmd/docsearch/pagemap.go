package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/pagemap"
)

var pagemapOutput string

var pagemapCmd = &cobra.Command{
	Use:   "pagemap",
	Short: "Manage the source-to-page mapping",
}

var pagemapGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Add page map entries derived from the pages directory",
	Long: `Derives each page's route from its path under pages_dir and maps it to the
content modules it imports. Entries already in the page map are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cfg.PageMap
		if pagemapOutput != "" {
			out = pagemapOutput
		}
		if out == "" {
			return fmt.Errorf("no page map path: set page_map or pass --output")
		}

		table, err := loadPageMap(cfg)
		if err != nil {
			return err
		}
		generated, err := pagemap.Generate(cfg.PagesDir, table.ContentRoot())
		if err != nil {
			return err
		}
		added := table.Merge(generated)
		if verbose {
			for _, k := range generated.Keys() {
				info, _ := generated.PageInfo(k)
				log.Printf("  %s -> %s", k, info.URL)
			}
		}

		if err := table.Save(out); err != nil {
			return err
		}
		log.Printf("Wrote %s: %d entries (%d added)", out, table.Len(), added)
		return nil
	},
}

func init() {
	pagemapGenerateCmd.Flags().StringVarP(&pagemapOutput, "output", "o", "", "write to this file instead of page_map")
	pagemapCmd.AddCommand(pagemapGenerateCmd)
	rootCmd.AddCommand(pagemapCmd)
}
