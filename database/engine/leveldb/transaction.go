// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/espers/velocityd/database/engine"
	"github.com/syndtr/goleveldb/leveldb"
)

// Transaction wraps a goleveldb transaction.  Only one transaction may be open
// at a time, further ones block until it is closed.
type Transaction struct {
	tx     *leveldb.Transaction
	closed bool
}

// Put implements engine.Transaction.
func (t *Transaction) Put(key, value []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.tx.Put(key, value, nil)
}

// Delete implements engine.Transaction.
func (t *Transaction) Delete(key []byte) error {
	if t.closed {
		return engine.ErrTxClosed
	}
	return t.tx.Delete(key, nil)
}

// Commit implements engine.Transaction.
func (t *Transaction) Commit() error {
	if t.closed {
		return engine.ErrTxClosed
	}
	t.closed = true
	return convertErr(t.tx.Commit())
}

// Discard implements engine.Transaction.
func (t *Transaction) Discard() {
	if !t.closed {
		t.closed = true
		t.tx.Discard()
	}
}
