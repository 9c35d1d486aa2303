// Package config loads docsearch settings from defaults, an optional YAML
// file and DOCSEARCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "docsearch.yaml"

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: DOCSEARCH_SERVER__ADDR sets server.addr.
const EnvPrefix = "DOCSEARCH_"

// Config is the top-level docsearch configuration.
type Config struct {
	ContentDir  string          `yaml:"content_dir" koanf:"content_dir"`
	ContentRoot string          `yaml:"content_root" koanf:"content_root"`
	Tag         string          `yaml:"tag" koanf:"tag"`
	Include     []string        `yaml:"include" koanf:"include"`
	Exclude     []string        `yaml:"exclude" koanf:"exclude"`
	Output      string          `yaml:"output" koanf:"output"`
	SQLite      string          `yaml:"sqlite" koanf:"sqlite"`
	PageMap     string          `yaml:"page_map" koanf:"page_map"`
	PagesDir    string          `yaml:"pages_dir" koanf:"pages_dir"`
	Search      SearchConfig    `yaml:"search" koanf:"search"`
	Highlight   HighlightConfig `yaml:"highlight" koanf:"highlight"`
	Server      ServerConfig    `yaml:"server" koanf:"server"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	MaxResults int `yaml:"max_results" koanf:"max_results"`
	// IndexURL overrides where the index is loaded from (URL or file path).
	// When empty the generated output file is used.
	IndexURL       string `yaml:"index_url" koanf:"index_url"`
	HighlightColor string `yaml:"highlight_color" koanf:"highlight_color"`
}

// HighlightConfig holds highlight-on-navigate settings.
type HighlightConfig struct {
	Selector      string `yaml:"selector" koanf:"selector"`
	SettleDelayMS int    `yaml:"settle_delay_ms" koanf:"settle_delay_ms"`
	ScrollDelayMS int    `yaml:"scroll_delay_ms" koanf:"scroll_delay_ms"`
	DurationMS    int    `yaml:"duration_ms" koanf:"duration_ms"`
	Offset        int    `yaml:"offset" koanf:"offset"`
	Background    string `yaml:"background" koanf:"background"`
}

// SettleDelay is the wait before the page is searched.
func (h HighlightConfig) SettleDelay() time.Duration {
	return time.Duration(h.SettleDelayMS) * time.Millisecond
}

// ScrollDelay is the wait between wrapping the match and scrolling to it.
func (h HighlightConfig) ScrollDelay() time.Duration {
	return time.Duration(h.ScrollDelayMS) * time.Millisecond
}

// Duration is how long the highlight stays visible.
func (h HighlightConfig) Duration() time.Duration {
	return time.Duration(h.DurationMS) * time.Millisecond
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr    string `yaml:"addr" koanf:"addr"`
	SiteDir string `yaml:"site_dir" koanf:"site_dir"`
	// AllowAll enables permissive CORS for the API routes.
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCSEARCH_*). A missing file is not an
// error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env overrides: %w", err)
	}

	// Lists from the file replace the defaults instead of overlaying them.
	for key, list := range map[string]*[]string{"include": &cfg.Include, "exclude": &cfg.Exclude} {
		if k.Exists(key) {
			*list = nil
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// envKey maps DOCSEARCH_HIGHLIGHT__SETTLE_DELAY_MS to highlight.settle_delay_ms.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir is required")
	}
	if c.ContentRoot == "" {
		return fmt.Errorf("content_root is required")
	}
	if c.Tag == "" {
		return fmt.Errorf("tag is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("include must list at least one pattern")
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative")
	}
	if c.Highlight.SettleDelayMS < 0 || c.Highlight.ScrollDelayMS < 0 || c.Highlight.DurationMS < 0 {
		return fmt.Errorf("highlight delays must be non-negative")
	}
	if c.Highlight.Offset < 0 {
		return fmt.Errorf("highlight.offset must be non-negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// IndexLocation returns where the search index is loaded from.
func (c *Config) IndexLocation() string {
	if c.Search.IndexURL != "" {
		return c.Search.IndexURL
	}
	return c.Output
}
