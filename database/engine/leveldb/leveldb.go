// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb implements the storage engine on top of goleveldb.
package leveldb

import (
	"github.com/espers/velocityd/database/engine"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// NewDB opens the database at the given path.  When create is set the
// database must not exist yet.
func NewDB(dbPath string, create bool) (engine.Engine, error) {
	opts := opt.Options{
		ErrorIfExist:   create,
		ErrorIfMissing: !create,
		Strict:         opt.DefaultStrict,
		Compression:    opt.NoCompression,
		Filter:         filter.NewBloomFilter(10),
	}
	ldb, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open leveldb at %s", dbPath)
	}
	return &DB{DB: ldb}, nil
}

// DB wraps a goleveldb database.
type DB struct {
	*leveldb.DB
}

// convertErr maps goleveldb errors onto the engine errors.
func convertErr(err error) error {
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return engine.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return engine.ErrClosed
	case errors.Is(err, leveldb.ErrSnapshotReleased):
		return engine.ErrSnapshotReleased
	}
	return err
}

// Transaction implements engine.Engine.
func (d *DB) Transaction() (engine.Transaction, error) {
	tx, err := d.DB.OpenTransaction()
	if err != nil {
		return nil, convertErr(err)
	}
	return &Transaction{tx: tx}, nil
}

// Snapshot implements engine.Engine.
func (d *DB) Snapshot() (engine.Snapshot, error) {
	snapshot, err := d.DB.GetSnapshot()
	if err != nil {
		return nil, convertErr(err)
	}
	return &Snapshot{snapshot: snapshot}, nil
}

// Close implements engine.Engine.
func (d *DB) Close() error {
	return convertErr(d.DB.Close())
}
