package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/artifact"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/events"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/linkextract"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/logfields"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/metrics"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/pathnorm"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/util/sets"
)

// DefaultWorkers bounds render concurrency when Options.Workers is unset.
const DefaultWorkers = 4

// Options configures an Orchestrator.
type Options struct {
	// Renderer produces a page's output. Required.
	Renderer Func
	// Store receives the rendered artifacts. Required.
	Store artifact.Store
	// Extractor pulls link candidates from rendered documents.
	// Defaults to linkextract.HTMLExtractor.
	Extractor linkextract.Extractor
	// Crawl follows links in rendered pages to discover new paths.
	Crawl bool
	// Workers bounds concurrent renders. Defaults to DefaultWorkers.
	Workers int
	// Assets, Stats and Locals are passed through to every Page.
	Assets map[string]string
	Stats  json.RawMessage
	Locals map[string]any
	// Bus receives lifecycle events when set.
	Bus *events.Bus
	// Recorder receives metrics. Defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder
}

// Orchestrator drives render passes: it schedules paths, invokes the
// renderer through a bounded worker pool, writes each artifact name at
// most once, and optionally expands rendered pages into new paths until
// the frontier quiesces.
type Orchestrator struct {
	renderer  Func
	store     artifact.Store
	extractor linkextract.Extractor
	crawl     bool
	workers   int
	assets    map[string]string
	stats     json.RawMessage
	locals    map[string]any
	bus       *events.Bus
	recorder  metrics.Recorder
}

// NewOrchestrator validates opts and returns a ready orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Renderer == nil {
		return nil, ErrInvalidRenderer
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	o := &Orchestrator{
		renderer:  opts.Renderer,
		store:     opts.Store,
		extractor: opts.Extractor,
		crawl:     opts.Crawl,
		workers:   opts.Workers,
		assets:    opts.Assets,
		stats:     opts.Stats,
		locals:    opts.Locals,
		bus:       opts.Bus,
		recorder:  opts.Recorder,
	}
	if o.extractor == nil {
		o.extractor = linkextract.HTMLExtractor{}
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	return o, nil
}

// run holds the mutable state of one render pass, so an orchestrator can
// serve passes back to back without leaking de-dup state between them.
type run struct {
	report   *Report
	frontier *frontier

	mu      sync.Mutex
	seen    sets.Set[string] // artifact names scheduled this pass
	claimed sets.Set[string] // artifact names claimed for writing
}

// RenderPaths renders the given paths and, when crawling, every path
// reachable from them. Per-page failures are collected in the report
// rather than returned; the error is non-nil only when ctx ended the
// pass early.
func (o *Orchestrator) RenderPaths(ctx context.Context, paths []string) (*Report, error) {
	r := &run{
		report:   newReport(),
		frontier: newFrontier(),
		seen:     sets.New[string](),
		claimed:  sets.New[string](),
	}
	slog.Info("render pass starting",
		logfields.BuildID(r.report.BuildID), "paths", len(paths), "crawl", o.crawl, "workers", o.workers)
	o.recorder.SetWorkerCount(o.workers)
	o.publish(events.NewBuildStarted(r.report.BuildID, paths, o.crawl, o.workers))

	for _, p := range paths {
		o.schedule(r, p, 0, "")
	}
	if r.frontier.backlog() > 0 {
		o.drain(ctx, r)
	}

	canceled := ctx.Err() != nil
	r.report.finalize(canceled)
	o.recorder.ObserveBuildDuration(r.report.Duration())
	o.recorder.IncBuildOutcome(string(r.report.Outcome))
	o.recorder.SetFrontierBacklog(0)
	o.publish(events.NewBuildCompleted(r.report.BuildID, string(r.report.Outcome),
		r.report.Written, r.report.Skipped, r.report.Failed, r.report.Duration()))
	slog.Info("render pass complete",
		logfields.BuildID(r.report.BuildID), logfields.Outcome(string(r.report.Outcome)),
		"written", r.report.Written, "skipped", r.report.Skipped, "failed", r.report.Failed,
		logfields.Duration(r.report.Duration()))
	if canceled {
		return r.report, ctx.Err()
	}
	return r.report, nil
}

// drain runs the worker pool until the frontier quiesces or ctx ends.
func (o *Orchestrator) drain(ctx context.Context, r *run) {
	results := make(chan PageResult)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range results {
			r.report.add(res)
			o.recorder.IncPageResult(metrics.ResultLabel(res.Status))
			o.recorder.ObservePageDuration(res.Duration)
		}
	}()

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			slog.Warn("render pass canceled, draining workers", logfields.Error(ctx.Err()))
			r.frontier.close()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.work(ctx, r, results)
		}()
	}
	wg.Wait()
	close(watchDone)
	close(results)
	<-collected
}

// work consumes frontier jobs until the frontier closes.
func (o *Orchestrator) work(ctx context.Context, r *run, results chan<- PageResult) {
	for {
		j, ok := r.frontier.pop()
		if !ok {
			return
		}
		o.recorder.SetFrontierBacklog(r.frontier.backlog())
		results <- o.renderOne(ctx, r, j)
		r.frontier.done()
	}
}

// renderOne takes one job through render, write and expansion.
func (o *Orchestrator) renderOne(ctx context.Context, r *run, j job) PageResult {
	start := time.Now()
	res := PageResult{
		Path:           j.path,
		Artifact:       pathnorm.ArtifactName(j.path),
		Depth:          j.depth,
		DiscoveredFrom: j.from,
	}
	slog.Debug("rendering page",
		logfields.Path(j.path), logfields.Artifact(res.Artifact), logfields.Depth(j.depth))

	out, err := o.invoke(ctx, &Page{Path: j.path, Assets: o.assets, Stats: o.stats, Locals: o.locals})
	if err != nil {
		return o.failed(r, res, start, err)
	}
	entries, err := normalizeOutput(j.path, out)
	if err != nil {
		return o.failed(r, res, start, err)
	}
	if len(entries) > 1 {
		// Every document of a multi-document render maps to the same
		// artifact name, so only the first is written; the keys merely
		// steer link resolution. Kept for compatibility.
		slog.Warn("multi-document output collapses into one artifact",
			logfields.Path(j.path), logfields.Artifact(res.Artifact), "documents", len(entries))
	}

	wrote := false
	for _, e := range entries {
		if !o.claim(r, res.Artifact) {
			slog.Debug("artifact already present, skipping write",
				logfields.Path(j.path), logfields.Artifact(res.Artifact))
			continue
		}
		if werr := o.store.Set(res.Artifact, []byte(e.html)); werr != nil {
			res.Status = PageFailed
			res.Err = fmt.Errorf("write artifact %q: %w", res.Artifact, werr)
			res.Duration = time.Since(start)
			slog.Error("artifact write failed",
				logfields.Path(j.path), logfields.Artifact(res.Artifact), logfields.Error(werr))
			o.publish(events.NewPageFailed(r.report.BuildID, j.path, werr.Error()))
			return res
		}
		wrote = true
		o.publish(events.NewArtifactWritten(r.report.BuildID, j.path, res.Artifact, len(e.html), j.depth))
		if o.crawl {
			o.expand(r, j, e)
		}
	}

	res.Duration = time.Since(start)
	if wrote {
		res.Status = PageWritten
	} else {
		res.Status = PageSkipped
		o.publish(events.NewPageSkipped(r.report.BuildID, j.path, res.Artifact))
	}
	return res
}

// invoke calls the renderer, converting a panic into an error so one bad
// page cannot take down a worker.
func (o *Orchestrator) invoke(ctx context.Context, page *Page) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("renderer panicked: %v", rec)
		}
	}()
	return o.renderer(ctx, page)
}

func (o *Orchestrator) failed(r *run, res PageResult, start time.Time, err error) PageResult {
	res.Status = PageFailed
	res.Err = &RenderError{Path: res.Path, Err: err}
	res.Duration = time.Since(start)
	slog.Error("page render failed", logfields.Path(res.Path), logfields.Error(err))
	o.publish(events.NewPageFailed(r.report.BuildID, res.Path, err.Error()))
	return res
}

// claim reserves an artifact name for a single writer. Names already in
// the store lose the claim too: artifacts placed there before the pass
// are kept, the page that collided is skipped.
func (o *Orchestrator) claim(r *run, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed.Has(name) || o.store.Has(name) {
		return false
	}
	r.claimed.Add(name)
	return true
}

// schedule queues path for rendering unless a path with the same
// artifact name was already scheduled this pass. De-duplicating on the
// artifact name is what makes crawl cycles terminate.
func (o *Orchestrator) schedule(r *run, path string, depth int, from string) {
	name := pathnorm.ArtifactName(path)
	r.mu.Lock()
	fresh := r.seen.Add(name)
	r.mu.Unlock()
	if !fresh {
		slog.Debug("path already scheduled", logfields.Path(path), logfields.Artifact(name))
		return
	}
	if !r.frontier.push(job{path: path, depth: depth, from: from}) {
		return // pass is shutting down
	}
	o.recorder.SetFrontierBacklog(r.frontier.backlog())
}

// expand extracts links from a written document and schedules the paths
// they resolve to.
func (o *Orchestrator) expand(r *run, j job, e outputEntry) {
	links, err := o.extractor.Extract(e.html)
	if err != nil {
		slog.Warn("link extraction failed", logfields.Path(j.path), logfields.Error(err))
		return
	}
	o.recorder.AddLinksDiscovered(links.Count())
	for _, href := range links.All() {
		target, ok := pathnorm.ResolveHref(href, e.base)
		if !ok {
			continue
		}
		o.schedule(r, target, j.depth+1, j.path)
	}
}

func (o *Orchestrator) publish(e events.Event) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Publish(e); err != nil {
		slog.Warn("event delivery failed", "type", e.Type(), logfields.Error(err))
	}
}
