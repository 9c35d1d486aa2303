package config

import (
	"github.com/f4ah6o/docsearch-go/internal/extractor"
	"github.com/f4ah6o/docsearch-go/internal/highlight"
	"github.com/f4ah6o/docsearch-go/internal/pagemap"
	"github.com/f4ah6o/docsearch-go/internal/search"
)

// Default returns a Config with the site's defaults.
func Default() *Config {
	hl := highlight.DefaultOptions()
	return &Config{
		ContentDir:  "src/components",
		ContentRoot: pagemap.DefaultContentRoot,
		Tag:         extractor.DefaultTag,
		Include:     append([]string(nil), extractor.DefaultInclude...),
		Exclude:     append([]string(nil), extractor.DefaultExclude...),
		Output:      "public/typographyTexts.json",
		PageMap:     "pagemap.toml",
		PagesDir:    "src/pages",
		Search: SearchConfig{
			MaxResults:     search.DefaultMaxResults,
			HighlightColor: search.DefaultHighlightColor,
		},
		Highlight: HighlightConfig{
			Selector:      hl.Selector,
			SettleDelayMS: int(hl.SettleDelay.Milliseconds()),
			ScrollDelayMS: int(hl.ScrollDelay.Milliseconds()),
			DurationMS:    int(hl.Duration.Milliseconds()),
			Offset:        hl.Offset,
			Background:    hl.Background,
		},
		Server: ServerConfig{
			Addr:    ":8080",
			SiteDir: "out",
		},
	}
}

// HighlightOptions converts the highlight settings for the highlight package.
func (c *Config) HighlightOptions() highlight.Options {
	return highlight.Options{
		Selector:    c.Highlight.Selector,
		SettleDelay: c.Highlight.SettleDelay(),
		ScrollDelay: c.Highlight.ScrollDelay(),
		Duration:    c.Highlight.Duration(),
		Offset:      c.Highlight.Offset,
		Background:  c.Highlight.Background,
	}
}

// ExtractorOptions converts the build settings for the extractor package.
func (c *Config) ExtractorOptions(verbose bool) extractor.Options {
	return extractor.Options{
		Root:    c.ContentDir,
		Tag:     c.Tag,
		Include: c.Include,
		Exclude: c.Exclude,
		Verbose: verbose,
	}
}
