package ingest

import "sync"

// Frontier tracks every stop id the engine has ever discovered plus a FIFO
// queue of stops awaiting their next poll. Taken stops are re-enqueued at the
// tail, so every discovered stop keeps being revisited. The discovered set
// only grows.
type Frontier struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	pending []string
	seeds   []string
}

func NewFrontier(seeds []string) *Frontier {
	f := &Frontier{
		seen:  make(map[string]struct{}),
		seeds: append([]string(nil), seeds...),
	}
	for _, id := range seeds {
		f.Discover(id)
	}
	return f
}

// Seen reports whether the stop id has been discovered before.
func (f *Frontier) Seen(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[id]
	return ok
}

// Discover adds a stop id to the frontier. It reports whether the id was new;
// an already-known id is a no-op, even under racing callers.
func (f *Frontier) Discover(id string) bool {
	if id == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[id]; ok {
		return false
	}
	f.seen[id] = struct{}{}
	f.pending = append(f.pending, id)
	return true
}

// TakeBatch removes and returns up to n ids from the head of the queue and
// re-enqueues them at the tail. If the queue is empty before the take, it is
// refilled from the seed stops so polling can restart from a known point.
func (f *Frontier) TakeBatch(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		f.pending = append(f.pending, f.seeds...)
	}
	if n > len(f.pending) {
		n = len(f.pending)
	}
	batch := make([]string, n)
	copy(batch, f.pending[:n])
	f.pending = append(f.pending[n:], batch...)
	return batch
}

// Discovered returns the size of the discovered set.
func (f *Frontier) Discovered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// QueueLen returns the current length of the pending queue.
func (f *Frontier) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
