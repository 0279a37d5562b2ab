// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSuiteEngine runs the conformance tests against engines returned by the
// given constructor.  Every subtest gets a fresh engine.
func TestSuiteEngine(t *testing.T, newEngine func(t *testing.T) Engine) {
	t.Run("TransactionSnapshot", func(t *testing.T) {
		engine := newEngine(t)
		defer engine.Close()

		tx, err := engine.Transaction()
		require.NoErrorf(t, err, "failed to create transaction")

		key := []byte("key1")
		value := []byte("value1")
		err = tx.Put(key, value)
		require.NoErrorf(t, err, "failed to put data into transaction")

		// Uncommitted writes are invisible.
		snapshot, err := engine.Snapshot()
		require.NoErrorf(t, err, "failed to create snapshot")

		has, err := snapshot.Has(key)
		require.NoErrorf(t, err, "failed to check if key exists in snapshot")
		require.Falsef(t, has, "expected key to not exist in snapshot")

		gotValue, err := snapshot.Get(key)
		require.ErrorIsf(t, err, ErrNotFound, "expected not found from snapshot")
		require.Nil(t, gotValue, "expected to get nil value from snapshot")

		err = tx.Commit()
		require.NoErrorf(t, err, "failed to commit transaction")

		// The old snapshot still does not see the commit.
		has, err = snapshot.Has(key)
		require.NoError(t, err)
		require.False(t, has, "snapshot changed after commit")
		snapshot.Release()

		snapshot, err = engine.Snapshot()
		require.NoErrorf(t, err, "failed to create snapshot")
		defer snapshot.Release()

		gotValue, err = snapshot.Get(key)
		require.NoErrorf(t, err, "failed to get value from snapshot")
		require.Equalf(t, value, gotValue, "snapshot value mismatch")

		has, err = snapshot.Has(key)
		require.NoError(t, err)
		require.True(t, has, "expected key to exist in snapshot")
	})

	t.Run("TransactionDelete", func(t *testing.T) {
		engine := newEngine(t)
		defer engine.Close()

		tx, err := engine.Transaction()
		require.NoError(t, err)
		require.NoError(t, tx.Put([]byte("a"), []byte("1")))
		require.NoError(t, tx.Put([]byte("b"), []byte("2")))
		require.NoError(t, tx.Commit())

		tx, err = engine.Transaction()
		require.NoError(t, err)
		require.NoError(t, tx.Delete([]byte("a")))
		require.NoError(t, tx.Put([]byte("b"), []byte("3")))
		require.NoError(t, tx.Commit())

		snapshot, err := engine.Snapshot()
		require.NoError(t, err)
		defer snapshot.Release()

		_, err = snapshot.Get([]byte("a"))
		require.ErrorIs(t, err, ErrNotFound, "deleted key still present")
		value, err := snapshot.Get([]byte("b"))
		require.NoError(t, err)
		require.Equal(t, []byte("3"), value, "overwritten value mismatch")
	})

	t.Run("TransactionDiscard", func(t *testing.T) {
		engine := newEngine(t)
		defer engine.Close()

		tx, err := engine.Transaction()
		require.NoError(t, err)
		require.NoError(t, tx.Put([]byte("key"), []byte("value")))
		tx.Discard()

		err = tx.Put([]byte("other"), []byte("value"))
		require.ErrorIs(t, err, ErrTxClosed, "put on discarded transaction")

		snapshot, err := engine.Snapshot()
		require.NoError(t, err)
		defer snapshot.Release()
		has, err := snapshot.Has([]byte("key"))
		require.NoError(t, err)
		require.False(t, has, "discarded write is visible")
	})

	t.Run("TransactionIterator", func(t *testing.T) {
		for _, test := range []struct {
			kvs       map[string]string // random order of key-value pairs
			ranges    *Range
			expectkvs [][2]string
		}{
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key0"), Limit: []byte("key1")},
				expectkvs: nil,
			},
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key0"), Limit: []byte("key2")},
				expectkvs: [][2]string{{"key1", "value1"}},
			},
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key1"), Limit: []byte("key3")},
				expectkvs: [][2]string{{"key1", "value1"}, {"key2", "value2"}},
			},
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key10"), Limit: []byte("key30")},
				expectkvs: [][2]string{{"key2", "value2"}, {"key3", "value3"}},
			},
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key2"), Limit: []byte("key2")},
				expectkvs: nil,
			},
			{
				kvs:       map[string]string{"key10": "value10", "key11": "value11", "key20": "value20", "key21": "value21"},
				ranges:    BytesPrefix([]byte("key1")),
				expectkvs: [][2]string{{"key10", "value10"}, {"key11", "value11"}},
			},
			{
				kvs:       map[string]string{"b": "2", "a": "1", "c": "3"},
				ranges:    nil,
				expectkvs: [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}},
			},
		} {
			engine := newEngine(t)

			tx, err := engine.Transaction()
			require.NoErrorf(t, err, "failed to create transaction")
			for k, v := range test.kvs {
				err = tx.Put([]byte(k), []byte(v))
				require.NoErrorf(t, err, "failed to put data into transaction")
			}
			err = tx.Commit()
			require.NoErrorf(t, err, "failed to commit transaction")

			snapshot, err := engine.Snapshot()
			require.NoErrorf(t, err, "failed to create snapshot")

			iter := snapshot.NewIterator(test.ranges)
			var idx int
			for iter.Next() {
				if idx >= len(test.expectkvs) {
					require.FailNowf(t, "unexpected key-value pair", "key: %s, value: %s", iter.Key(), iter.Value())
				}

				require.Equalf(t, []byte(test.expectkvs[idx][0]), iter.Key(), "key mismatch")
				require.Equalf(t, []byte(test.expectkvs[idx][1]), iter.Value(), "value mismatch")
				idx++
			}
			require.Equalf(t, len(test.expectkvs), idx, "key-value pair count mismatch")
			require.NoError(t, iter.Error())
			require.Nil(t, iter.Key(), "exhausted iterator returned a key")

			iter.Release()
			snapshot.Release()
			require.NoError(t, engine.Close())
		}
	})

	t.Run("IteratorPositioning", func(t *testing.T) {
		engine := newEngine(t)
		defer engine.Close()

		tx, err := engine.Transaction()
		require.NoError(t, err)
		for _, k := range []string{"k1", "k3", "k5", "k7"} {
			require.NoError(t, tx.Put([]byte(k), []byte("v"+k[1:])))
		}
		require.NoError(t, tx.Commit())

		snapshot, err := engine.Snapshot()
		require.NoError(t, err)
		defer snapshot.Release()

		iter := snapshot.NewIterator(&Range{Start: []byte("k2")})
		defer iter.Release()

		require.True(t, iter.Last())
		require.Equal(t, []byte("k7"), iter.Key())
		require.True(t, iter.Prev())
		require.Equal(t, []byte("k5"), iter.Key())

		require.True(t, iter.Seek([]byte("k4")))
		require.Equal(t, []byte("k5"), iter.Key())
		require.Equal(t, []byte("v5"), iter.Value())

		require.True(t, iter.First())
		require.Equal(t, []byte("k3"), iter.Key())
		require.False(t, iter.Prev(), "moved before the start of the range")
		require.False(t, iter.Valid())

		require.False(t, iter.Seek([]byte("k8")))
		require.Nil(t, iter.Key())
	})

	t.Run("DbClose", func(t *testing.T) {
		engine := newEngine(t)

		transaction, err := engine.Transaction()
		require.NoErrorf(t, err, "failed to create transaction")

		transaction.Discard()
		transaction.Discard() // multiple calls to discard should be safe
		err = transaction.Commit()
		require.Errorf(t, err, "expected to get error when committing discarded transaction")

		snapshot, err := engine.Snapshot()
		require.NoErrorf(t, err, "failed to create snapshot")

		iterator := snapshot.NewIterator(&Range{})
		require.NoErrorf(t, iterator.Error(), "failed to create iterator")
		iterator.Release()
		iterator.Release() // multiple calls to release should be safe

		snapshot.Release()
		snapshot.Release() // multiple calls to release should be safe
		_, err = snapshot.Get([]byte("key"))
		require.ErrorIsf(t, err, ErrSnapshotReleased, "expected to get error when getting value from released snapshot")

		err = engine.Close()
		require.NoErrorf(t, err, "failed to close engine")

		err = engine.Close()
		require.ErrorIsf(t, err, ErrClosed, "expected to get error when closing closed engine")

		_, err = engine.Transaction()
		require.Errorf(t, err, "expected to get error when creating transaction from closed engine")

		_, err = engine.Snapshot()
		require.Errorf(t, err, "expected to get error when creating snapshot from closed engine")
	})
}
