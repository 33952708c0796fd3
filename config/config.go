// Package config loads folio settings from a YAML file overlaid with
// FOLIO_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"adventune/folio/format"
	"adventune/folio/repository"
)

const EnvPrefix = "FOLIO_"

// Config corresponds to folio.yml.
type Config struct {
	// ContentDir holds posts/ and public/. Ignored for posts when BaseURL is set.
	ContentDir string `yaml:"content_dir" koanf:"content_dir"`
	// BaseURL fetches posts from a remote site instead of ContentDir.
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Listen  string `yaml:"listen" koanf:"listen"`
	Watch   bool   `yaml:"watch" koanf:"watch"`
	Debug   bool   `yaml:"debug" koanf:"debug"`

	FallbackPost   string `yaml:"fallback_post" koanf:"fallback_post"`
	MaxConcurrency int    `yaml:"max_concurrency" koanf:"max_concurrency"`

	AssetRoot           string `yaml:"asset_root" koanf:"asset_root"`
	ImageFormat         string `yaml:"image_format" koanf:"image_format"`
	ImageFallbackFormat string `yaml:"image_fallback_format" koanf:"image_fallback_format"`

	// FrontMatter selects the post header parser: "native" for the line
	// format, "structured" for YAML, TOML or JSON documents.
	FrontMatter    string `yaml:"front_matter" koanf:"front_matter"`
	Formatter      string `yaml:"formatter" koanf:"formatter"`
	Highlight      bool   `yaml:"highlight" koanf:"highlight"`
	HighlightStyle string `yaml:"highlight_style" koanf:"highlight_style"`

	// Shell is an HTML file with the page markup the listing is placed in.
	// An empty value uses the built-in page.
	Shell          string   `yaml:"shell" koanf:"shell"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ContentDir:          "./content",
		Listen:              ":8000",
		Watch:               true,
		FallbackPost:        repository.DefaultFallbackID,
		MaxConcurrency:      8,
		AssetRoot:           "public",
		ImageFormat:         "webp",
		ImageFallbackFormat: "png",
		FrontMatter:         "native",
		Formatter:           "dialect",
		Highlight:           true,
		HighlightStyle:      "onedark",
		AllowedOrigins:      []string{"*"},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FOLIO_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// FOLIO_CONTENT_DIR -> content_dir, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ContentDir == "" && c.BaseURL == "" {
		return fmt.Errorf("one of content_dir or base_url is required")
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid base_url %q: must be an http or https URL", c.BaseURL)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.FallbackPost == "" {
		return fmt.Errorf("fallback_post is required")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.ImageFormat == "" || c.ImageFallbackFormat == "" {
		return fmt.Errorf("image_format and image_fallback_format are required")
	}
	if c.FrontMatter != "" && c.FrontMatter != "native" && c.FrontMatter != "structured" {
		return fmt.Errorf("invalid front_matter %q: must be one of native, structured", c.FrontMatter)
	}
	if _, ok := format.Named(c.Formatter); !ok {
		return fmt.Errorf("invalid formatter %q: must be one of dialect, commonmark, gfm", c.Formatter)
	}
	return nil
}
