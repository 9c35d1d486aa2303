package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/preview"
)

var (
	previewLine   int
	previewHeight int
	previewStyle  string
)

var previewCmd = &cobra.Command{
	Use:   "preview <page.html> [text]",
	Short: "Show an exported page in the terminal with text highlighted",
	Long: `Renders the content region of an exported page, highlights the first
occurrence of text after the configured settle delay and scrolls the view to it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		params := url.Values{}
		if len(args) == 2 {
			params.Set("highlight", args[1])
			if previewLine > 0 {
				params.Set("line", strconv.Itoa(previewLine))
			}
		}

		width, height := preview.TerminalSize()
		if previewHeight > 0 {
			height = previewHeight
		} else {
			// Leave room for the title, table of contents and status line.
			height = max(height/2, 5)
		}

		p := preview.New(preview.Options{
			Highlight: cfg.HighlightOptions(),
			Width:     width,
			Height:    height,
			Style:     previewStyle,
		})
		if err := p.Run(ctx, args[0], params, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to preview %s: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().IntVar(&previewLine, "line", 0, "source line of the text")
	previewCmd.Flags().IntVar(&previewHeight, "height", 0, "viewport height in lines")
	previewCmd.Flags().StringVar(&previewStyle, "style", "", "glamour style (dark, light, notty, ...)")
	rootCmd.AddCommand(previewCmd)
}
