package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/config"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/util/sets"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct{}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	g.Logger = configureLogging(root.Verbose, cfg.Log)
	return RunWatch(cfg)
}

// RunWatch performs an initial render pass and then rebuilds whenever
// the watched trees change, until a shutdown signal arrives. Page
// failures never stop the session; only a broken setup does.
func RunWatch(cfg *config.Config) error {
	fmt.Println("Starting watch mode")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, err := NewBuilder(cfg)
	if err != nil {
		return err
	}
	defer builder.Close()

	// The first pass runs before watching starts so a broken setup
	// fails fast instead of sitting idle. Watch passes build against a
	// fresh store view: output reflects the current sources even when
	// artifacts from an earlier session are still on disk.
	report, err := builder.Rebuild(ctx)
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())

	var debounce, interval time.Duration
	if cfg.Watch != nil {
		debounce = cfg.Watch.DebounceDuration()
		interval = cfg.Watch.IntervalDuration()
	}
	dirs := watchDirs(cfg)

	watcher, err := watch.New(watch.Options{
		Dirs:     dirs,
		Debounce: debounce,
		Interval: interval,
		OnRebuild: func(ctx context.Context) {
			rpt, err := builder.Rebuild(ctx)
			if err != nil {
				slog.Error("Rebuild failed", "error", err)
				return
			}
			fmt.Println(rpt.Summary())
		},
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	slog.Info("Watching for changes", "dirs", dirs, "debounce", debounce, "interval", interval)

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher")
	return watcher.Stop()
}

// watchDirs resolves the directory trees a watch session observes:
// the explicitly configured watch paths when present, otherwise the
// renderer inputs and the bundler output files.
func watchDirs(cfg *config.Config) []string {
	if cfg.Watch != nil && len(cfg.Watch.Paths) > 0 {
		return cfg.Watch.Paths
	}
	seen := sets.New[string]()
	var dirs []string
	add := func(dir string) {
		if dir == "" || !seen.Add(dir) {
			return
		}
		dirs = append(dirs, dir)
	}
	if cfg.Renderer.Module != "" {
		add(filepath.Dir(cfg.Renderer.Module))
	}
	if md := cfg.Renderer.Markdown; md != nil {
		add(md.Content)
		if md.Layout != "" {
			add(filepath.Dir(md.Layout))
		}
	}
	if cfg.Assets.Manifest != "" {
		add(filepath.Dir(cfg.Assets.Manifest))
	}
	if cfg.Assets.Stats != "" {
		add(filepath.Dir(cfg.Assets.Stats))
	}
	return dirs
}
