package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultBloomCapacity sizes the match id filter
const DefaultBloomCapacity = 500000

// KnownMatches answers which match ids are not stored yet. Once warmed, a
// bloom filter screens out ids that were never seen so only possibly-known
// ids reach the store query.
type KnownMatches struct {
	store Store

	mu     sync.Mutex
	filter *bloom.BloomFilter
	warmed atomic.Bool
}

// NewKnownMatches creates an existence filter over store. A zero capacity uses
// DefaultBloomCapacity.
func NewKnownMatches(store Store, capacity uint) *KnownMatches {
	if capacity == 0 {
		capacity = DefaultBloomCapacity
	}
	return &KnownMatches{
		store:  store,
		filter: bloom.NewWithEstimates(capacity, 0.001),
	}
}

// Warm loads every stored match id into the bloom filter. Until Warm has
// succeeded every lookup goes to the store.
func (k *KnownMatches) Warm(ctx context.Context) (int, error) {
	n := 0
	err := k.store.EachMatchID(ctx, func(id string) {
		k.Add(id)
		n++
	})
	if err != nil {
		return n, fmt.Errorf("failed to warm match filter: %w", err)
	}
	k.warmed.Store(true)
	log.Printf("[Known] Bloom filter warmed with %d match ids", n)
	return n, nil
}

// Add records a stored match id
func (k *KnownMatches) Add(id string) {
	k.mu.Lock()
	k.filter.AddString(id)
	k.mu.Unlock()
}

func (k *KnownMatches) maybeKnown(id string) bool {
	if !k.warmed.Load() {
		return true
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.filter.TestString(id)
}

// Unknown returns the ids that are not stored, in input order with duplicates
// removed. The store is asked at most once.
func (k *KnownMatches) Unknown(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	var candidates []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
		if k.maybeKnown(id) {
			candidates = append(candidates, id)
		}
	}

	existing := map[string]bool{}
	if len(candidates) > 0 {
		var err error
		existing, err = k.store.ExistingMatchIDs(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing matches: %w", err)
		}
	}

	unknown := make([]string, 0, len(unique))
	for _, id := range unique {
		if existing[id] {
			k.Add(id)
			continue
		}
		unknown = append(unknown, id)
	}
	return unknown, nil
}
