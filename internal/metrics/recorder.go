package metrics

import "time"

// ResultLabel enumerates page render result categories for counters.
type ResultLabel string

const (
	ResultWritten ResultLabel = "written"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for build and page metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObservePageDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
	AddLinksDiscovered(n int)
	SetFrontierBacklog(n int)
	SetWorkerCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageDuration(time.Duration)  {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncPageResult(ResultLabel)          {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) AddLinksDiscovered(int)             {}
func (NoopRecorder) SetFrontierBacklog(int)             {}
func (NoopRecorder) SetWorkerCount(int)                 {}
