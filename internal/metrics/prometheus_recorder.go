package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	pageDuration    prom.Histogram
	buildDuration   prom.Histogram
	pageResults     *prom.CounterVec
	buildOutcome    *prom.CounterVec
	linksDiscovered prom.Counter
	frontierBacklog prom.Gauge
	workerCount     prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.pageDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuild",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.DefBuckets,
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuild",
			Name:      "build_duration_seconds",
			Help:      "Total render pass duration",
			Buckets:   prom.DefBuckets,
		})
		pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "page_results_total",
			Help:      "Page render counts by terminal state",
		}, []string{"result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "build_outcomes_total",
			Help:      "Render pass outcomes by final status",
		}, []string{"outcome"})
		pr.linksDiscovered = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "links_discovered_total",
			Help:      "Candidate links extracted from rendered pages",
		})
		pr.frontierBacklog = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuild",
			Name:      "frontier_backlog",
			Help:      "Paths queued for rendering but not yet picked up",
		})
		pr.workerCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuild",
			Name:      "render_workers",
			Help:      "Configured render worker count for the current pass",
		})
		reg.MustRegister(pr.pageDuration, pr.buildDuration, pr.pageResults, pr.buildOutcome, pr.linksDiscovered, pr.frontierBacklog, pr.workerCount)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil || p.pageResults == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddLinksDiscovered(n int) {
	if p == nil || p.linksDiscovered == nil {
		return
	}
	p.linksDiscovered.Add(float64(n))
}

func (p *PrometheusRecorder) SetFrontierBacklog(n int) {
	if p == nil || p.frontierBacklog == nil {
		return
	}
	p.frontierBacklog.Set(float64(n))
}

func (p *PrometheusRecorder) SetWorkerCount(n int) {
	if p == nil || p.workerCount == nil {
		return
	}
	p.workerCount.Set(float64(n))
}
