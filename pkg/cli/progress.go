package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// BatchProgress tracks a command that works through several environments one
// at a time, such as publish --all. Each finished environment prints one line
// and Finish prints a summary.
type BatchProgress struct {
	mu      sync.Mutex
	w       io.Writer
	verb    string
	total   int
	done    int
	failed  []string
	started time.Time
	now     func() time.Time
}

// NewBatchProgress returns a tracker that writes to w, or os.Stderr when w
// is nil. verb names the action in the output, e.g. "published".
func NewBatchProgress(w io.Writer, verb string, total int) *BatchProgress {
	if w == nil {
		w = os.Stderr
	}
	p := &BatchProgress{w: w, verb: verb, total: total, now: time.Now}
	p.started = p.now()
	return p
}

// Step records the outcome for one environment. ok=false marks it failed
// without stopping the batch.
func (p *BatchProgress) Step(name string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	mark := "ok"
	if !ok {
		mark = "FAILED"
		p.failed = append(p.failed, name)
	}
	fmt.Fprintf(p.w, "[%d/%d] %s %s\n", p.done, p.total, name, mark)
}

// Abort reports an error that ends the batch early.
func (p *BatchProgress) Abort(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "[%d/%d] %s aborted: %v\n", p.done+1, p.total, name, err)
}

// Failed returns the names of environments that did not succeed, in order.
func (p *BatchProgress) Failed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.failed...)
}

// Finish prints the summary line.
func (p *BatchProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.started).Round(time.Millisecond)
	fmt.Fprintf(p.w, "%s %d/%d environments, %d failed (%s)\n",
		p.verb, p.done-len(p.failed), p.total, len(p.failed), elapsed)
}
