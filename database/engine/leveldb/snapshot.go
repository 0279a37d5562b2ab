// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/espers/velocityd/database/engine"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Snapshot wraps a goleveldb snapshot.
type Snapshot struct {
	snapshot *leveldb.Snapshot
	released bool
}

// Has implements engine.Snapshot.
func (s *Snapshot) Has(key []byte) (bool, error) {
	if s.released {
		return false, engine.ErrSnapshotReleased
	}
	has, err := s.snapshot.Has(key, nil)
	return has, convertErr(err)
}

// Get implements engine.Snapshot.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, engine.ErrSnapshotReleased
	}
	val, err := s.snapshot.Get(key, nil)
	if err != nil {
		return nil, convertErr(err)
	}
	return val, nil
}

// Release implements engine.Snapshot.
func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		s.snapshot.Release()
	}
}

// NewIterator implements engine.Snapshot.  A nil range covers every key.
func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	var r *util.Range
	if slice != nil {
		r = &util.Range{Start: slice.Start, Limit: slice.Limit}
	}
	return s.snapshot.NewIterator(r, nil)
}
