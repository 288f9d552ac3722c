package render

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// PageStatus is the terminal state of one scheduled path.
type PageStatus string

const (
	PageWritten PageStatus = "written"
	PageSkipped PageStatus = "skipped"
	PageFailed  PageStatus = "failed"
)

// Outcome summarizes a whole render pass.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// PageResult records what happened to one scheduled path.
type PageResult struct {
	Path     string
	Artifact string
	Status   PageStatus
	// Depth is the crawl distance from the initial path list.
	Depth int
	// DiscoveredFrom names the page whose links surfaced this path;
	// empty for initial paths.
	DiscoveredFrom string
	Duration       time.Duration
	Err            error
}

// Report aggregates the outcome of one render pass.
type Report struct {
	BuildID   string
	StartTime time.Time
	EndTime   time.Time
	Outcome   Outcome
	// Pages holds one result per scheduled path, sorted by path once the
	// pass has finished.
	Pages   []PageResult
	Written int
	Skipped int
	Failed  int
	// Errors collects one entry per failed page.
	Errors []error
}

func newReport() *Report {
	return &Report{BuildID: uuid.NewString(), StartTime: time.Now()}
}

// add ingests one page result. Not safe for concurrent use; the
// orchestrator funnels results through a single collector.
func (r *Report) add(res PageResult) {
	r.Pages = append(r.Pages, res)
	switch res.Status {
	case PageWritten:
		r.Written++
	case PageSkipped:
		r.Skipped++
	case PageFailed:
		r.Failed++
		if res.Err != nil {
			r.Errors = append(r.Errors, res.Err)
		}
	}
}

// finalize stamps the end time, fixes the outcome, and orders pages by
// path for stable reporting.
func (r *Report) finalize(canceled bool) {
	r.EndTime = time.Now()
	sort.Slice(r.Pages, func(i, j int) bool { return r.Pages[i].Path < r.Pages[j].Path })
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case r.Failed > 0:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration returns the wall time of the pass.
func (r *Report) Duration() time.Duration { return r.EndTime.Sub(r.StartTime) }

// IsSuccess reports whether every page reached a non-failed state.
func (r *Report) IsSuccess() bool { return r.Outcome == OutcomeSuccess }

// Summary returns a one-line human summary for CLI output.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d written, %d skipped, %d failed in %s",
		r.Outcome, r.Written, r.Skipped, r.Failed, r.Duration().Round(time.Millisecond))
}
