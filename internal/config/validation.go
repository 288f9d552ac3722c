package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks the configuration for contradictions the type system
// cannot express. Defaults are assumed to have been applied.
func Validate(cfg *Config) error {
	if err := validateRenderer(&cfg.Renderer); err != nil {
		return err
	}
	if err := validateStore(&cfg.Store); err != nil {
		return err
	}
	if err := validateWatch(cfg.Watch); err != nil {
		return err
	}
	if err := validateEvents(cfg.Events); err != nil {
		return err
	}
	if err := validateSource(cfg.Source); err != nil {
		return err
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive: %d", cfg.Concurrency)
	}
	return nil
}

func validateRenderer(rc *RendererConfig) error {
	hasModule := rc.Module != ""
	hasMarkdown := rc.Markdown != nil && rc.Markdown.Content != ""
	switch {
	case hasModule && hasMarkdown:
		return errors.New("renderer.module and renderer.markdown.content are mutually exclusive")
	case !hasModule && !hasMarkdown:
		return errors.New("one of renderer.module or renderer.markdown.content is required")
	}
	return nil
}

func validateStore(sc *StoreConfig) error {
	switch sc.Kind {
	case StoreFS, StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("invalid store kind: %s (allowed: fs|memory|sqlite)", sc.Kind)
	}
	if sc.Kind == StoreFS && sc.Dir == "" {
		return errors.New("store.dir is required for the fs store")
	}
	if sc.Kind == StoreSQLite && sc.DSN == "" {
		return errors.New("store.dsn is required for the sqlite store")
	}
	return nil
}

func validateWatch(wc *WatchConfig) error {
	if wc == nil {
		return nil
	}
	if _, err := time.ParseDuration(wc.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce: %s: %w", wc.Debounce, err)
	}
	if wc.Interval != "" {
		d, err := time.ParseDuration(wc.Interval)
		if err != nil {
			return fmt.Errorf("invalid watch.interval: %s: %w", wc.Interval, err)
		}
		if d < time.Second {
			return fmt.Errorf("watch.interval (%s) must be at least 1s", wc.Interval)
		}
	}
	return nil
}

func validateEvents(ec *EventsConfig) error {
	if ec == nil || ec.NATS == nil {
		return nil
	}
	if ec.NATS.URL == "" {
		return errors.New("events.nats.url is required when NATS publishing is configured")
	}
	return nil
}

func validateSource(sc *SourceConfig) error {
	if sc == nil {
		return nil
	}
	if sc.URL == "" {
		return errors.New("source.url is required when a source is configured")
	}
	if sc.Depth < 0 {
		return fmt.Errorf("source.depth cannot be negative: %d", sc.Depth)
	}
	if sc.Retries < 0 {
		return fmt.Errorf("source.retries cannot be negative: %d", sc.Retries)
	}
	return nil
}

// DebounceDuration returns the parsed debounce interval. Validate must
// have accepted the configuration first.
func (w *WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

// IntervalDuration returns the parsed rebuild interval, or zero when no
// schedule is configured.
func (w *WatchConfig) IntervalDuration() time.Duration {
	if w.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.Interval)
	if err != nil {
		return 0
	}
	return d
}
