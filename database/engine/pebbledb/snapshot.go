// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/espers/velocityd/database/engine"
	"github.com/pkg/errors"
)

// Snapshot wraps a pebble snapshot.
type Snapshot struct {
	snapshot *pebble.Snapshot
	released bool
}

// Has implements engine.Snapshot.
func (s *Snapshot) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, engine.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get implements engine.Snapshot.  Pebble only lends out the value, so a copy
// is returned.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, engine.ErrSnapshotReleased
	}

	val, closer, err := s.snapshot.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), val...), nil
}

// Release implements engine.Snapshot.
func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		s.snapshot.Close()
	}
}

// NewIterator implements engine.Snapshot.  A nil range covers every key.
func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	if s.released {
		return &Iterator{err: engine.ErrSnapshotReleased}
	}

	var opts pebble.IterOptions
	if slice != nil {
		opts.LowerBound = slice.Start
		opts.UpperBound = slice.Limit
	}
	iter, err := s.snapshot.NewIter(&opts)
	if err != nil {
		return &Iterator{err: err}
	}
	return &Iterator{iter: iter}
}
