// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/espers/velocityd/database/engine"
)

// Iterator adapts a pebble iterator to the engine iterator.  A fresh iterator
// is not positioned, so the first Next moves it to the first key.  An
// iterator without a pebble iterator carries the error it failed with.
type Iterator struct {
	iter     *pebble.Iterator
	started  bool
	released bool
	err      error
}

func (i *Iterator) usable() bool {
	return i.iter != nil && !i.released
}

// First implements engine.Iterator.
func (i *Iterator) First() bool {
	if !i.usable() {
		return false
	}
	i.started = true
	return i.iter.First()
}

// Last implements engine.Iterator.
func (i *Iterator) Last() bool {
	if !i.usable() {
		return false
	}
	i.started = true
	return i.iter.Last()
}

// Seek implements engine.Iterator.
func (i *Iterator) Seek(key []byte) bool {
	if !i.usable() {
		return false
	}
	i.started = true
	return i.iter.SeekGE(key)
}

// Next implements engine.Iterator.
func (i *Iterator) Next() bool {
	if !i.usable() {
		return false
	}
	if !i.started {
		return i.First()
	}
	return i.iter.Next()
}

// Prev implements engine.Iterator.
func (i *Iterator) Prev() bool {
	if !i.usable() {
		return false
	}
	if !i.started {
		return i.Last()
	}
	return i.iter.Prev()
}

// Valid implements engine.Iterator.
func (i *Iterator) Valid() bool {
	return i.usable() && i.started && i.iter.Valid()
}

// Key implements engine.Iterator.
func (i *Iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}
	return i.iter.Key()
}

// Value implements engine.Iterator.
func (i *Iterator) Value() []byte {
	if !i.Valid() {
		return nil
	}
	return i.iter.Value()
}

// Release implements engine.Iterator.
func (i *Iterator) Release() {
	if !i.released {
		i.released = true
		if i.iter != nil {
			i.iter.Close()
		}
	}
}

// Error implements engine.Iterator.
func (i *Iterator) Error() error {
	switch {
	case i.released:
		return engine.ErrIterReleased
	case i.err != nil:
		return i.err
	}
	return i.iter.Error()
}
