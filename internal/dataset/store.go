package dataset

import "sync/atomic"

type snapshot struct {
	ds  *Dataset
	gen uint64
}

// Store publishes the current dataset to concurrent readers. Readers get an
// immutable snapshot; Replace swaps it without blocking them.
type Store struct {
	cur atomic.Pointer[snapshot]
}

// NewStore returns a store holding ds at generation 1.
func NewStore(ds *Dataset) *Store {
	s := &Store{}
	s.cur.Store(&snapshot{ds: ds, gen: 1})
	return s
}

// Current returns the active dataset and its generation.
func (s *Store) Current() (*Dataset, uint64) {
	snap := s.cur.Load()
	if snap == nil {
		return nil, 0
	}
	return snap.ds, snap.gen
}

// Replace installs ds and returns the new generation.
func (s *Store) Replace(ds *Dataset) uint64 {
	for {
		old := s.cur.Load()
		var gen uint64 = 1
		if old != nil {
			gen = old.gen + 1
		}
		if s.cur.CompareAndSwap(old, &snapshot{ds: ds, gen: gen}) {
			return gen
		}
	}
}
