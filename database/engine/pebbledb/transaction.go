// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/espers/velocityd/database/engine"
)

// Transaction collects writes in a pebble batch.
type Transaction struct {
	batch  *pebble.Batch
	closed bool
}

// Put implements engine.Transaction.
func (t *Transaction) Put(key, value []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.batch.Set(key, value, pebble.NoSync)
}

// Delete implements engine.Transaction.
func (t *Transaction) Delete(key []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.batch.Delete(key, pebble.NoSync)
}

// Commit implements engine.Transaction.  The batch is synced to disk.
func (t *Transaction) Commit() error {
	if t.closed {
		return engine.ErrTxClosed
	}
	t.closed = true
	defer t.batch.Close()
	return t.batch.Commit(pebble.Sync)
}

// Discard implements engine.Transaction.
func (t *Transaction) Discard() {
	if !t.closed {
		t.closed = true
		t.batch.Close()
	}
}
