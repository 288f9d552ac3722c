package commands

import (
	"log/slog"
	"os"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/config"
	"github.com/alecthomas/kong"
)

// Global carries state shared across subcommands, filled in as each
// command finishes its setup.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with the global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuild.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Render the configured paths and write the resulting artifacts"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever page sources change"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// configureLogging re-applies level and format once the configuration
// file has been read. The --verbose flag always wins over the file.
func configureLogging(verbose bool, lc config.LogConfig) *slog.Logger {
	level := config.NormalizeLogLevel(lc.Level).Slog()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.NormalizeLogFormat(lc.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
