package ai

import "sync"

// flights tracks the generation each user has running. A user may join
// their own identical request but not start a different one.
type flights struct {
	mu      sync.Mutex
	running map[string]*flight
}

type flight struct {
	key     string
	waiters int
}

func newFlights() *flights {
	return &flights{running: make(map[string]*flight)}
}

// begin registers a caller for key. It returns false when owner already
// has a different request in flight.
func (f *flights) begin(owner, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.running[owner]
	if !ok {
		f.running[owner] = &flight{key: key, waiters: 1}
		return true
	}
	if cur.key != key {
		return false
	}
	cur.waiters++
	return true
}

func (f *flights) end(owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.running[owner]
	if !ok {
		return
	}
	if cur.waiters--; cur.waiters <= 0 {
		delete(f.running, owner)
	}
}
