package feed

import (
	"sync"
	"time"
)

// SearchDebounce is how long input must stay unchanged before a filter
// re-run fires.
const SearchDebounce = 500 * time.Millisecond

// Debouncer delays a callback until its input has been stable for the
// configured interval. Each Trigger supersedes the previous pending one.
type Debouncer struct {
	d     time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{d: d}
}

// Trigger schedules fn after the debounce interval, cancelling any pending
// invocation.
func (b *Debouncer) Trigger(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.d, fn)
}

// Stop cancels any pending invocation. Must be called when the owning screen
// unmounts; a leaked timer firing into a dead screen is a defect.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
