// Package config loads, defaults and validates the build configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/render"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/renderloader"
)

// Store kinds.
const (
	StoreFS     = "fs"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the top level build configuration.
type Config struct {
	Site        SiteConfig     `yaml:"site,omitempty"`
	Paths       PathList       `yaml:"paths,omitempty"`
	Crawl       bool           `yaml:"crawl,omitempty"`
	Concurrency int            `yaml:"concurrency,omitempty"`
	Renderer    RendererConfig `yaml:"renderer"`
	Assets      AssetsConfig   `yaml:"assets,omitempty"`
	Locals      map[string]any `yaml:"locals,omitempty"`
	Store       StoreConfig    `yaml:"store,omitempty"`
	Events      *EventsConfig  `yaml:"events,omitempty"`
	Source      *SourceConfig  `yaml:"source,omitempty"`
	Watch       *WatchConfig   `yaml:"watch,omitempty"`
	Log         LogConfig      `yaml:"log,omitempty"`
}

// SiteConfig carries site wide presentation settings.
type SiteConfig struct {
	Title string `yaml:"title,omitempty"`
}

// RendererConfig selects the page renderer. Exactly one of Module or
// Markdown.Content must be set.
type RendererConfig struct {
	// Module is the path of a Go source module loaded at run time.
	Module string `yaml:"module,omitempty"`
	// Export is the function name looked up in the module.
	Export string `yaml:"export,omitempty"`
	// Markdown configures the built-in Markdown renderer.
	Markdown *MarkdownConfig `yaml:"markdown,omitempty"`
}

// MarkdownConfig configures the built-in Markdown renderer.
type MarkdownConfig struct {
	Content string `yaml:"content"`
	Layout  string `yaml:"layout,omitempty"`
}

// AssetsConfig points at the bundler outputs exposed to pages.
type AssetsConfig struct {
	Manifest string `yaml:"manifest,omitempty"`
	Stats    string `yaml:"stats,omitempty"`
}

// StoreConfig selects where rendered artifacts are written.
type StoreConfig struct {
	Kind string `yaml:"kind,omitempty"`
	Dir  string `yaml:"dir,omitempty"`
	DSN  string `yaml:"dsn,omitempty"`
}

// EventsConfig enables build event persistence and publishing.
type EventsConfig struct {
	// Journal is the path of the local event journal database.
	Journal string `yaml:"journal,omitempty"`
	// NATS configures JetStream publishing of build events.
	NATS *NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures the JetStream event publisher.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// SourceConfig fetches page sources from a Git repository before the
// build runs.
type SourceConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Depth  int    `yaml:"depth,omitempty"`
	Dir    string `yaml:"dir,omitempty"`
	// Retries is the number of extra sync attempts after a transient
	// failure.
	Retries int `yaml:"retries,omitempty"`
}

// WatchConfig tunes rebuild-on-change and scheduled rebuilds.
type WatchConfig struct {
	// Paths lists directory trees to watch. Empty means derived from
	// the renderer and asset configuration.
	Paths    PathList `yaml:"paths,omitempty"`
	Debounce string   `yaml:"debounce,omitempty"`
	Interval string   `yaml:"interval,omitempty"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load reads the configuration file, expands ${VAR} references from the
// environment (a .env file is honored when present) and applies
// defaults. Validation is the caller's responsibility.
func Load(configPath string) (*Config, error) {
	loadEnv()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// loadEnv loads the first .env style file found. Existing process
// variables always win.
func loadEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("failed to load env file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("loaded environment from file", slog.String("file", name))
		return
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Paths) == 0 {
		cfg.Paths = PathList{"/"}
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = render.DefaultWorkers
	}
	if cfg.Renderer.Export == "" {
		cfg.Renderer.Export = renderloader.DefaultExport
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = StoreFS
	}
	if cfg.Store.Kind == StoreFS && cfg.Store.Dir == "" {
		cfg.Store.Dir = "./public"
	}
	if cfg.Store.Kind == StoreSQLite && cfg.Store.DSN == "" {
		cfg.Store.DSN = "./artifacts.db"
	}
	if cfg.Watch != nil && cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "300ms"
	}
	if cfg.Events != nil && cfg.Events.NATS != nil {
		if cfg.Events.NATS.Stream == "" {
			cfg.Events.NATS.Stream = "SITEBUILD"
		}
		if cfg.Events.NATS.Subject == "" {
			cfg.Events.NATS.Subject = "sitebuild"
		}
	}
	if cfg.Source != nil {
		if cfg.Source.Branch == "" {
			cfg.Source.Branch = "main"
		}
		if cfg.Source.Dir == "" {
			cfg.Source.Dir = "./content-src"
		}
	}
	cfg.Log.Level = string(NormalizeLogLevel(cfg.Log.Level))
	cfg.Log.Format = string(NormalizeLogFormat(cfg.Log.Format))
}

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Site:        SiteConfig{Title: "My Site"},
		Paths:       PathList{"/"},
		Crawl:       true,
		Concurrency: render.DefaultWorkers,
		Renderer: RendererConfig{
			Markdown: &MarkdownConfig{Content: "./content"},
		},
		Assets: AssetsConfig{
			Manifest: "./dist/assets.json",
		},
		Store: StoreConfig{Kind: StoreFS, Dir: "./public"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
