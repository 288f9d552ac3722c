package render

import "sync"

// job is one frontier entry: a path waiting to be rendered.
type job struct {
	path  string
	depth int    // 0 for initial paths, +1 per crawl expansion
	from  string // path whose links discovered this one; empty for initial paths
}

// frontier is the crawl work queue: an unbounded FIFO with quiescence
// detection. pending counts queued plus in-flight jobs; when the last
// job completes with nothing queued behind it, the frontier closes and
// every blocked worker wakes up and exits.
type frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []job
	pending int
	closed  bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push enqueues j. It reports false once the frontier has closed.
func (f *frontier) push(j job) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.queue = append(f.queue, j)
	f.pending++
	f.cond.Signal()
	return true
}

// pop blocks until a job is available or the frontier closes.
func (f *frontier) pop() (job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 && !f.closed {
		f.cond.Wait()
	}
	if f.closed {
		return job{}, false
	}
	j := f.queue[0]
	f.queue = f.queue[1:]
	return j, true
}

// done marks one popped job finished. Every pop must be paired with a
// done after any pushes it triggers, or quiescence fires early.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending--
	if f.pending == 0 && !f.closed {
		f.closed = true
		f.cond.Broadcast()
	}
}

// close shuts the frontier down without draining it (cancellation).
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cond.Broadcast()
}

// backlog returns the number of queued, not yet picked up jobs.
func (f *frontier) backlog() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
