package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/artifact"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/config"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/events"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/gitsource"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/manifest"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/mdrender"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/metrics"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/render"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/renderloader"
)

// Builder wires validated configuration into the long-lived pieces of a
// build: the artifact store, the event bus and its sinks, and metrics.
// The renderer, asset bundle and orchestrator are rebuilt on every pass
// so that watch mode picks up renderer and bundler output changes
// without a restart.
type Builder struct {
	cfg      *config.Config
	store    artifact.Store
	bus      *events.Bus
	journal  *events.SQLiteJournal
	nats     *events.NATSPublisher
	recorder metrics.Recorder
}

// NewBuilder assembles a builder. The configuration must have passed
// config.Validate.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	store, err := newStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	b := &Builder{
		cfg:      cfg,
		store:    store,
		recorder: metrics.NewPrometheusRecorder(nil),
	}
	if cfg.Events != nil {
		if err := b.initEvents(cfg.Events); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// Build runs one complete render pass: sync page sources when
// configured, load the bundler outputs, build the renderer and drive
// the orchestrator over the configured paths. Pages whose artifacts are
// already in the store are rendered but not written, which makes a pass
// over a persistent store incremental.
func (b *Builder) Build(ctx context.Context) (*render.Report, error) {
	return b.build(ctx, b.store)
}

// Rebuild runs a pass against a fresh view of the store, so pages whose
// artifacts already exist are rendered and written again. Watch mode
// uses this to keep the output current as sources change.
func (b *Builder) Rebuild(ctx context.Context) (*render.Report, error) {
	return b.build(ctx, artifact.FreshView(b.store))
}

func (b *Builder) build(ctx context.Context, store artifact.Store) (*render.Report, error) {
	if src := b.cfg.Source; src != nil {
		dir, err := gitsource.Sync(ctx, gitsource.Source{
			URL:     src.URL,
			Branch:  src.Branch,
			Depth:   src.Depth,
			Dir:     src.Dir,
			Retries: src.Retries,
		})
		if err != nil {
			return nil, fmt.Errorf("sync page sources: %w", err)
		}
		slog.Info("Page sources synced", "dir", dir)
	}

	bundle, err := manifest.Load(b.cfg.Assets.Manifest, b.cfg.Assets.Stats)
	if err != nil {
		return nil, fmt.Errorf("load asset bundle: %w", err)
	}

	renderer, err := b.newRenderer()
	if err != nil {
		return nil, err
	}

	orch, err := render.NewOrchestrator(render.Options{
		Renderer: renderer,
		Store:    store,
		Crawl:    b.cfg.Crawl,
		Workers:  b.cfg.Concurrency,
		Assets:   bundle.Assets,
		Stats:    bundle.Stats,
		Locals:   b.cfg.Locals,
		Bus:      b.bus,
		Recorder: b.recorder,
	})
	if err != nil {
		return nil, err
	}
	return orch.RenderPaths(ctx, b.cfg.Paths)
}

// Close releases the event sinks and the store. Safe to call on a
// partially constructed builder.
func (b *Builder) Close() {
	if b.nats != nil {
		if err := b.nats.Close(); err != nil {
			slog.Warn("Closing event publisher failed", "error", err)
		}
	}
	if b.journal != nil {
		if err := b.journal.Close(); err != nil {
			slog.Warn("Closing event journal failed", "error", err)
		}
	}
	if c, ok := b.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Closing artifact store failed", "error", err)
		}
	}
}

func (b *Builder) initEvents(ec *config.EventsConfig) error {
	if ec.Journal != "" {
		j, err := events.NewSQLiteJournal(ec.Journal)
		if err != nil {
			return fmt.Errorf("open event journal: %w", err)
		}
		b.journal = j
		b.bus = events.NewBusWithJournal(j)
	} else {
		b.bus = events.NewBus()
	}
	if ec.NATS != nil {
		pub, err := events.NewNATSPublisher(ec.NATS.URL, ec.NATS.Subject, ec.NATS.Stream)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		b.nats = pub
		b.bus.SubscribeAll(pub.Handle)
	}
	return nil
}

// newRenderer builds the render function the configuration asks for,
// either a loaded module export or the built-in Markdown renderer.
func (b *Builder) newRenderer() (render.Func, error) {
	rc := b.cfg.Renderer
	if rc.Module != "" {
		fn, err := renderloader.Load(rc.Module, rc.Export)
		if err != nil {
			return nil, fmt.Errorf("load renderer module: %w", err)
		}
		return fn, nil
	}
	r, err := mdrender.New(mdrender.Options{
		ContentDir: rc.Markdown.Content,
		LayoutPath: rc.Markdown.Layout,
		SiteTitle:  b.cfg.Site.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("build markdown renderer: %w", err)
	}
	return r.Render, nil
}

func newStore(sc config.StoreConfig) (artifact.Store, error) {
	switch sc.Kind {
	case config.StoreMemory:
		return artifact.NewMemStore(), nil
	case config.StoreSQLite:
		return artifact.NewSQLiteStore(sc.DSN)
	case config.StoreFS:
		return artifact.NewFSStore(sc.Dir)
	default:
		return nil, fmt.Errorf("unsupported store kind: %q", sc.Kind)
	}
}
