package index

import (
	"sort"
	"sync"
)

// Tracker holds the keys no shard has referenced yet. It only verifies the
// build and never influences how the partitioner branches.
type Tracker struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewTracker starts with every key pending.
func NewTracker(keys []string) *Tracker {
	t := &Tracker{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		t.keys[k] = struct{}{}
	}
	return t
}

// Claim marks keys as referenced. Claiming an already claimed key is a no-op.
func (t *Tracker) Claim(keys []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.keys, k)
	}
}

// Len returns the number of pending keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}

// Remaining returns the pending keys, sorted.
func (t *Tracker) Remaining() []string {
	t.mu.Lock()
	out := make([]string, 0, len(t.keys))
	for k := range t.keys {
		out = append(out, k)
	}
	t.mu.Unlock()
	sort.Strings(out)
	return out
}
