// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

// Iterator iterates over the key/value pairs of a snapshot in key order.
type Iterator interface {
	// First moves the iterator to the first key/value pair and returns
	// whether it exists.
	First() bool

	// Last moves the iterator to the last key/value pair and returns
	// whether it exists.
	Last() bool

	// Seek moves the iterator to the first key/value pair whose key is
	// greater than or equal to the given key and returns whether it
	// exists.
	Seek(key []byte) bool

	// Next moves the iterator to the next key/value pair.  It returns
	// false once the iterator is exhausted.
	Next() bool

	// Prev moves the iterator to the previous key/value pair.  It returns
	// false once the iterator is exhausted.
	Prev() bool

	Valid() bool

	// Error returns any accumulated error.  Exhausting the iterator is not
	// an error.
	Error() error

	// Key and Value return the current key/value pair, or nil when the
	// iterator is not positioned.  The returned slices are only valid
	// until the iterator is moved.
	Key() []byte
	Value() []byte

	Releaser
}

// Range is a key range.
type Range struct {
	// Start is the first key of the range, inclusive.  A nil start is
	// unbounded.
	Start []byte

	// Limit is the end of the range, exclusive.  A nil limit is unbounded.
	Limit []byte
}

// BytesPrefix returns the range of keys that start with the given prefix.
func BytesPrefix(prefix []byte) *Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i]++
			break
		}
	}
	return &Range{Start: prefix, Limit: limit}
}
