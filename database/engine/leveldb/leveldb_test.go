// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/espers/velocityd/database/engine"
	"github.com/stretchr/testify/require"
)

func TestSuiteLevelDB(t *testing.T) {
	engine.TestSuiteEngine(t, func(t *testing.T) engine.Engine {
		dbPath := filepath.Join(t.TempDir(), "leveldb-testsuite")

		db, err := NewDB(dbPath, true)
		require.NoErrorf(t, err, "failed to create leveldb")
		return db
	})
}

func TestOpenExisting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leveldb-reopen")

	_, err := NewDB(dbPath, false)
	require.Error(t, err, "expected error opening a missing database")

	db, err := NewDB(dbPath, true)
	require.NoError(t, err)
	tx, err := db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("key"), []byte("value")))
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Close())

	_, err = NewDB(dbPath, true)
	require.Error(t, err, "expected error creating an existing database")

	db, err = NewDB(dbPath, false)
	require.NoError(t, err)
	defer db.Close()
	snapshot, err := db.Snapshot()
	require.NoError(t, err)
	defer snapshot.Release()
	value, err := snapshot.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)
}
