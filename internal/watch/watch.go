// Package watch triggers rebuilds when page sources change and on an
// optional fixed schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/logfields"
)

const defaultDebounce = 300 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	// Dirs are the directory trees watched for changes. Hidden
	// directories such as .git are skipped.
	Dirs []string
	// Debounce coalesces bursts of file events into one rebuild.
	Debounce time.Duration
	// Interval adds a scheduled rebuild when positive.
	Interval time.Duration
	// OnRebuild runs after the debounce window closes or the schedule
	// fires. Invocations never overlap.
	OnRebuild func(context.Context)
}

// Watcher debounces file system events into rebuild callbacks.
type Watcher struct {
	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	dirs      []string
	debounce  time.Duration
	interval  time.Duration
	onRebuild func(context.Context)

	trigger   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	rebuildMu sync.Mutex
}

// New builds a Watcher. Start must be called before events flow.
func New(opts Options) (*Watcher, error) {
	if opts.OnRebuild == nil {
		return nil, errors.New("rebuild callback is required")
	}
	if len(opts.Dirs) == 0 {
		return nil, errors.New("at least one directory to watch is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		watcher:   fw,
		debounce:  debounce,
		interval:  opts.Interval,
		onRebuild: opts.OnRebuild,
		trigger:   make(chan struct{}, 1),
		stop:      make(chan struct{}),
		dirs:      opts.Dirs,
	}, nil
}

// Start watches the configured trees and begins dispatching rebuilds.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	slog.Info("watching for source changes",
		slog.Any("dirs", w.dirs),
		slog.Duration("debounce", w.debounce))

	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)

	if w.interval > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = sched.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(func() { w.runRebuild(ctx) }),
			gocron.WithName("scheduled-rebuild"),
		)
		if err != nil {
			_ = sched.Shutdown()
			return fmt.Errorf("create scheduled rebuild job: %w", err)
		}
		w.scheduler = sched
		sched.Start()
		slog.Info("scheduled rebuilds enabled", slog.Duration("interval", w.interval))
	}
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		if w.scheduler != nil {
			if serr := w.scheduler.Shutdown(); serr != nil && err == nil {
				err = serr
			}
		}
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ignored(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("failed to watch new directory",
							logfields.Dir(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("source change detected",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))
			w.triggerRebuild()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", logfields.Error(err))
		}
	}
}

// debounceLoop restarts the debounce timer on every trigger, so the
// rebuild fires once per burst after the last change settles.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.runRebuild(ctx) })
		}
	}
}

func (w *Watcher) triggerRebuild() {
	select {
	case w.trigger <- struct{}{}:
	default:
		// A rebuild is already pending.
	}
}

func (w *Watcher) runRebuild(ctx context.Context) {
	w.rebuildMu.Lock()
	defer w.rebuildMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	w.onRebuild(ctx)
}

// addTree watches root and every non-hidden subdirectory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// ignored filters dotfiles and editor temp files.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
