// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package engine defines the key/value storage interface the chain index is kept
in, along with a suite of conformance tests for its implementations.

Two implementations are provided, backed by goleveldb and pebble respectively.
Writes are grouped into a Transaction which is applied atomically on Commit.
Reads go through a Snapshot which is unaffected by later commits.
*/
package engine

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned by Snapshot.Get when the key does not
	// exist.
	ErrNotFound = errors.New("engine: key not found")

	// ErrClosed is returned when using an engine after it was closed.
	ErrClosed = errors.New("engine: closed")

	// ErrTxClosed is returned when using a transaction after it was
	// committed or discarded.
	ErrTxClosed = errors.New("engine: transaction already closed")

	// ErrSnapshotReleased is returned when reading from a released
	// snapshot.
	ErrSnapshotReleased = errors.New("engine: snapshot released")

	// ErrIterReleased is returned by Iterator.Error once the iterator was
	// released.
	ErrIterReleased = errors.New("engine: iterator released")
)

// Engine is an ordered key/value store.
type Engine interface {
	// Transaction starts a new write transaction.
	Transaction() (Transaction, error)

	// Snapshot returns a consistent read-only view of the store.
	Snapshot() (Snapshot, error)

	// Close closes the store.  Closing it twice returns ErrClosed.
	Close() error
}

// Transaction buffers writes until they are committed.
type Transaction interface {
	Put(key, value []byte) error
	Delete(key []byte) error

	// Commit atomically applies the buffered writes.
	Commit() error

	// Discard drops the buffered writes.  It is safe to call it after
	// Commit and more than once.
	Discard()
}

// Snapshot is a read-only point in time view of the store.
type Snapshot interface {
	// Get returns a copy of the value of the key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)

	// NewIterator returns an iterator over the keys within the range.  The
	// iterator starts before the first key, so Next must be called to move
	// to it.
	NewIterator(*Range) Iterator

	Releaser
}

// Releaser releases the resources held by a snapshot or an iterator.
// Releasing more than once is safe.
type Releaser interface {
	Release()
}
