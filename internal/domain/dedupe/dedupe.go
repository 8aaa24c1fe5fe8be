// Package dedupe tracks recently seen stimulus ids.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Deduper records seen ids so a resubmitted stimulus is applied at most once.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id, for stimuli that were recorded but then rejected
	// (e.g. queue backpressure) so a retry is accepted.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in a map plus an insertion-ordered ring used
// for FIFO eviction. Unrecorded ids leave a tombstone in the ring that is
// skipped on eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> generation it was recorded at
	ring    []ringEntry
	head    int
	count   int
	maxSize int
	gen     uint64
}

type ringEntry struct {
	id  string
	gen uint64
}

// NewInMemoryDeduper creates a deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]uint64)
	if d.maxSize > 0 {
		d.ring = make([]ringEntry, d.maxSize)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.gen++
	d.seen[id] = d.gen
	if d.maxSize <= 0 {
		return false
	}

	if d.count == d.maxSize {
		d.evictOldest()
	}
	tail := (d.head + d.count) % d.maxSize
	d.ring[tail] = ringEntry{id: id, gen: d.gen}
	d.count++
	return false
}

// evictOldest pops the head of the ring and forgets its id unless the id
// was unrecorded and recorded again since.
func (d *inMemoryDeduper) evictOldest() {
	e := d.ring[d.head]
	if gen, ok := d.seen[e.id]; ok && gen == e.gen {
		delete(d.seen, e.id)
	}
	d.ring[d.head] = ringEntry{}
	d.head = (d.head + 1) % d.maxSize
	d.count--
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
