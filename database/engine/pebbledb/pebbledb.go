// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pebbledb implements the storage engine on top of pebble.
package pebbledb

import (
	"os"
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/espers/velocityd/database/engine"
	"github.com/pkg/errors"
)

const (
	// DefaultCache is the default block cache size in MiB.
	DefaultCache = 64

	// DefaultHandles is the default number of open files.
	DefaultHandles = 16
)

// NewDB opens the database at the given path with a block cache of cache MiB
// and up to handles open files.  When create is set the database must not
// exist yet, otherwise it must.
func NewDB(dbPath string, create bool, cache, handles int) (engine.Engine, error) {
	if cache <= 0 {
		cache = DefaultCache
	}
	if handles <= 0 {
		handles = DefaultHandles
	}

	if !create {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, errors.Wrapf(err, "unable to open pebble at %s",
				dbPath)
		}
	}

	// The chain index is small, so the level sizes stay modest.
	levels := make([]pebble.LevelOptions, 7)
	for i := range levels {
		levels[i] = pebble.LevelOptions{
			TargetFileSize: int64(2<<i) * 1024 * 1024,
			FilterPolicy:   bloom.FilterPolicy(10),
		}
	}

	blockCache := pebble.NewCache(int64(cache) * 1024 * 1024)
	defer blockCache.Unref()

	opts := &pebble.Options{
		Cache:                    blockCache,
		ErrorIfExists:            create,
		MaxOpenFiles:             handles,
		MaxConcurrentCompactions: runtime.NumCPU,
		Levels:                   levels,
	}
	opts.Experimental.ReadSamplingMultiplier = -1
	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open pebble at %s", dbPath)
	}

	return &DB{db: db}, nil
}

// DB wraps a pebble database.
type DB struct {
	db     *pebble.DB
	closed atomic.Bool
}

// Transaction implements engine.Engine.
func (d *DB) Transaction() (engine.Transaction, error) {
	if d.closed.Load() {
		return nil, engine.ErrClosed
	}
	return &Transaction{batch: d.db.NewBatch()}, nil
}

// Snapshot implements engine.Engine.
func (d *DB) Snapshot() (engine.Snapshot, error) {
	if d.closed.Load() {
		return nil, engine.ErrClosed
	}
	return &Snapshot{snapshot: d.db.NewSnapshot()}, nil
}

// Close implements engine.Engine.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return engine.ErrClosed
	}
	return d.db.Close()
}
