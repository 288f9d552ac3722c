package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/config"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/render"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string   `short:"o" help:"Override the artifact output directory"`
	Crawl  bool     `help:"Follow links in rendered pages to discover more paths"`
	Paths  []string `arg:"" optional:"" help:"Site paths to render instead of the configured list"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	b.applyFlags(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	g.Logger = configureLogging(root.Verbose, cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, cfg)
}

// applyFlags folds command line overrides into the configuration before
// validation. --output always selects the filesystem store.
func (b *BuildCmd) applyFlags(cfg *config.Config) {
	if b.Output != "" {
		cfg.Store = config.StoreConfig{Kind: config.StoreFS, Dir: b.Output}
	}
	if b.Crawl {
		cfg.Crawl = true
	}
	if len(b.Paths) > 0 {
		cfg.Paths = config.PathList(b.Paths)
	}
}

// RunBuild performs a single render pass and reports the outcome.
func RunBuild(ctx context.Context, cfg *config.Config) error {
	// Friendly user-facing messages go to stdout; logs go to stderr.
	fmt.Println("Starting site build")

	builder, err := NewBuilder(cfg)
	if err != nil {
		return err
	}
	defer builder.Close()

	report, err := builder.Build(ctx)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return err
	}
	if !report.IsSuccess() {
		return fmt.Errorf("build finished with outcome %s", report.Outcome)
	}
	fmt.Println("Build completed successfully")
	return nil
}

// printReport writes the pass summary and one line per failed page to
// stdout.
func printReport(report *render.Report) {
	fmt.Println(report.Summary())
	for _, page := range report.Pages {
		if page.Status != render.PageFailed {
			continue
		}
		fmt.Printf("  %s: %v\n", page.Path, page.Err)
	}
}
