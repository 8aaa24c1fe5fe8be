package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/lapicque/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: spikes DESC, then neuronID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the ranking
// from most to least active. Subtree sizes give ranks in O(log n).

type node struct {
	id     string
	spikes uint64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aSpikes, aID) ranks before (bSpikes, bID).
func less(aSpikes uint64, aID string, bSpikes uint64, bID string) bool {
	if aSpikes != bSpikes {
		return aSpikes > bSpikes
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, spikes, prio uint64) *node {
	if n == nil {
		return &node{id: id, spikes: spikes, prio: prio, size: 1}
	}
	if less(spikes, id, n.spikes, n.id) {
		n.left = insert(n.left, id, spikes, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, spikes, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, spikes uint64) *node {
	if n == nil {
		return nil
	}
	switch {
	case spikes == n.spikes && id == n.id:
		// Rotate the higher priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, spikes)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, spikes)
		}
	case less(spikes, id, n.spikes, n.id):
		n.left = deleteNode(n.left, id, spikes)
	default:
		n.right = deleteNode(n.right, id, spikes)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order index of (id, spikes).
func position(n *node, id string, spikes uint64) int {
	pos := 0
	for n != nil {
		switch {
		case spikes == n.spikes && id == n.id:
			return pos + nsize(n.left) + 1
		case less(spikes, id, n.spikes, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{Rank: len(*out) + 1, NeuronID: n.id, Spikes: n.spikes})
	}
	collectTopN(n.right, limit, out)
}

var _ Store = (*TreapStore)(nil)

// TreapStore keeps neurons ordered by spike count.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]uint64
	rng  *rand.Rand
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore() *TreapStore {
	return &TreapStore{
		byID: make(map[string]uint64),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // treap priorities
	}
}

// Update implements Store.Update in O(log n) expected time.
func (s *TreapStore) Update(_ context.Context, neuronID string, spikes uint64) (bool, error) {
	s.mu.Lock()
	old, ok := s.byID[neuronID]
	if ok {
		if spikes <= old {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, neuronID, old)
	}
	s.byID[neuronID] = spikes
	s.root = insert(s.root, neuronID, spikes, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	if !ok {
		metrics.UpdateRankingRecords(count)
	}
	return true, nil
}

// Rank returns the current position and spike count of a neuron.
func (s *TreapStore) Rank(_ context.Context, neuronID string) (Entry, error) {
	start := time.Now()
	defer recordQuery(start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	spikes, ok := s.byID[neuronID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:     position(s.root, neuronID, spikes),
		NeuronID: neuronID,
		Spikes:   spikes,
	}, nil
}

// TopN returns the top n entries.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer recordQuery(start)

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &out)
	return out, nil
}

// Count returns the number of neurons tracked.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Remove forgets a neuron.
func (s *TreapStore) Remove(_ context.Context, neuronID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spikes, ok := s.byID[neuronID]
	if !ok {
		return
	}
	s.root = deleteNode(s.root, neuronID, spikes)
	delete(s.byID, neuronID)
	metrics.UpdateRankingRecords(len(s.byID))
}

func recordQuery(start time.Time) {
	metrics.RecordRankingQuery(float64(time.Since(start).Microseconds()) / 1000)
}
