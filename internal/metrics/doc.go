// Package metrics provides observability hooks for the render core.
//
// It implements the Null Object pattern so callers never nil-check a
// recorder: components default to NoopRecorder, whose methods inline to
// nothing, and a real implementation is injected when metrics are wanted.
//
// The package has three parts:
//
//  1. Recorder interface - defines all metrics operations
//  2. NoopRecorder - default implementation that does nothing
//  3. PrometheusRecorder - forwards to a Prometheus registry
//
// Components receive a Recorder through dependency injection:
//
//	orch, err := render.NewOrchestrator(render.Options{
//	    Recorder: metrics.NewPrometheusRecorder(registry),
//	})
//
// Leaving Options.Recorder nil selects NoopRecorder.
package metrics
