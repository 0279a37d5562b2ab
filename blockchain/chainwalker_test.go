// Copyright (c) 2017 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

// TestChainWalkerBlockAtHeight ensures every height of the best chain resolves
// to the block recorded at that height.
func TestChainWalkerBlockAtHeight(t *testing.T) {
	idx, blocks := newTestChain(50)
	params := testParams(nil)
	walker := NewChainWalker(idx, params)

	// Query in a scattered order so the view is extended downwards in
	// several steps.
	heights := []int64{49, 25, 30, 0, 12, 48, 1, 37}
	for _, height := range heights {
		hash, err := walker.BlockHashByHeight(height)
		if err != nil {
			t.Fatalf("BlockHashByHeight(%d): unexpected error: %v",
				height, err)
		}
		if *hash != blocks[height].Hash {
			t.Fatalf("BlockHashByHeight(%d): got %v, want %v", height,
				hash, blocks[height].Hash)
		}
		meta, err := walker.BlockByHeight(height)
		if err != nil {
			t.Fatalf("BlockByHeight(%d): unexpected error: %v", height,
				err)
		}
		if meta.Height != height {
			t.Fatalf("BlockByHeight(%d): mismatched record %v", height,
				spew.Sdump(meta))
		}
	}

	// Everything is in the view now, so further lookups must not touch
	// the chain index beyond fetching the best hash.
	idx.resetLookups()
	for height := int64(0); height < 50; height++ {
		if _, err := walker.BlockByHeight(height); err != nil {
			t.Fatalf("BlockByHeight(%d): unexpected error: %v", height,
				err)
		}
	}
	if n := idx.resetLookups(); n != 0 {
		t.Fatalf("cached lookups walked the chain index %d times", n)
	}
}

// TestChainWalkerOutOfRange ensures lookups outside of the best chain behave
// as documented.
func TestChainWalkerOutOfRange(t *testing.T) {
	idx, blocks := newTestChain(10)
	params := testParams(nil)
	walker := NewChainWalker(idx, params)

	_, err := walker.BlockHashByHeight(10)
	if !errors.Is(err, ErrHeightNotFound) {
		t.Fatalf("BlockHashByHeight(10): unexpected error: %v", err)
	}
	_, err = walker.BlockByHeight(-1)
	if !errors.Is(err, ErrHeightNotFound) {
		t.Fatalf("BlockByHeight(-1): unexpected error: %v", err)
	}

	// Heights below genesis resolve to the genesis era hash.
	for _, height := range []int64{-1, -100} {
		hash, err := walker.BlockHashByHeight(height)
		if err != nil {
			t.Fatalf("BlockHashByHeight(%d): unexpected error: %v",
				height, err)
		}
		if *hash != *params.GenesisEraHash {
			t.Fatalf("BlockHashByHeight(%d): got %v, want %v",
				height, hash, params.GenesisEraHash)
		}
	}
	timestamp, err := walker.BlockTimeByHeight(-1)
	if err != nil || timestamp != 0 {
		t.Fatalf("BlockTimeByHeight(-1): got (%d, %v), want (0, nil)",
			timestamp, err)
	}
	timestamp, err = walker.BlockTimeByHeight(9)
	if err != nil || timestamp != blocks[9].Timestamp {
		t.Fatalf("BlockTimeByHeight(9): got (%d, %v), want (%d, nil)",
			timestamp, err, blocks[9].Timestamp)
	}
}

// TestChainWalkerReorg ensures the view follows reorganizations of the best
// chain and only walks back to the fork point.
func TestChainWalkerReorg(t *testing.T) {
	idx, mainBlocks := newTestChain(20)
	params := testParams(nil)
	walker := NewChainWalker(idx, params)

	// Populate the whole view.
	if _, err := walker.BlockByHeight(0); err != nil {
		t.Fatalf("BlockByHeight(0): unexpected error: %v", err)
	}

	// Fork off after block 14 with a longer side chain and make it best.
	sideBlocks := idx.extend(mainBlocks[14], 's', 8, 60)
	idx.setBest(sideBlocks[len(sideBlocks)-1])
	idx.resetLookups()

	tip, err := walker.BestBlock()
	if err != nil {
		t.Fatalf("BestBlock: unexpected error: %v", err)
	}
	if tip.Height != 22 {
		t.Fatalf("unexpected tip height %d", tip.Height)
	}

	// The repair looks up the new tip and walks its ancestors down to the
	// fork point at height 14, which is already in the view.
	if n := idx.resetLookups(); n != 9 {
		t.Fatalf("reorganization walked %d blocks, want 9", n)
	}

	for height := int64(0); height <= 22; height++ {
		var want chainhash.Hash
		if height > 14 {
			want = sideBlocks[height-15].Hash
		} else {
			want = mainBlocks[height].Hash
		}
		hash, err := walker.BlockHashByHeight(height)
		if err != nil {
			t.Fatalf("BlockHashByHeight(%d): unexpected error: %v",
				height, err)
		}
		if *hash != want {
			t.Fatalf("BlockHashByHeight(%d): got %v, want %v", height,
				hash, want)
		}
	}

	// Reorganize back to a shorter chain.  Heights above the new tip must
	// no longer resolve.
	idx.setBest(mainBlocks[17])
	if _, err := walker.BlockByHeight(18); !errors.Is(err, ErrHeightNotFound) {
		t.Fatalf("BlockByHeight(18) after reorg: unexpected error: %v",
			err)
	}
	hash, err := walker.BlockHashByHeight(16)
	if err != nil || *hash != mainBlocks[16].Hash {
		t.Fatalf("BlockHashByHeight(16) after reorg: got (%v, %v)",
			hash, err)
	}
}

// TestChainWalkerReorgBelowView ensures a reorganization to a tip below the
// walked part of the view starts a fresh view.
func TestChainWalkerReorgBelowView(t *testing.T) {
	idx, blocks := newTestChain(30)
	walker := NewChainWalker(idx, testParams(nil))

	// Only the top of the chain is walked.
	if _, err := walker.BlockByHeight(25); err != nil {
		t.Fatalf("BlockByHeight(25): unexpected error: %v", err)
	}

	side := idx.extend(blocks[9], 'x', 2, 60)
	idx.setBest(side[1])
	for height := int64(0); height <= 11; height++ {
		want := blocks[height].Hash
		if height > 9 {
			want = side[height-10].Hash
		}
		hash, err := walker.BlockHashByHeight(height)
		if err != nil || *hash != want {
			t.Fatalf("BlockHashByHeight(%d): got (%v, %v), want %v",
				height, hash, err, want)
		}
	}
}

// TestChainWalkerInconsistentIndex ensures chain index inconsistencies are
// reported as assertions rather than hidden.
func TestChainWalkerInconsistentIndex(t *testing.T) {
	idx, blocks := newTestChain(10)
	walker := NewChainWalker(idx, testParams(nil))

	// Remove a block from the middle of the chain.
	idx.mtx.Lock()
	delete(idx.blocks, blocks[4].Hash)
	idx.mtx.Unlock()

	_, err := walker.BlockByHeight(2)
	var aerr AssertError
	if !errors.As(err, &aerr) {
		t.Fatalf("BlockByHeight(2): expected assertion, got %v", err)
	}

	// Unrelated heights above the gap still resolve.
	hash, err := walker.BlockHashByHeight(7)
	if err != nil || *hash != blocks[7].Hash {
		t.Fatalf("BlockHashByHeight(7): got (%v, %v)", hash, err)
	}

	// A parent recorded at the wrong height is an inconsistency too.
	idx.mtx.Lock()
	bad := *blocks[6]
	bad.Height = 2
	idx.blocks[bad.Hash] = &bad
	idx.mtx.Unlock()
	walker = NewChainWalker(idx, testParams(nil))
	if _, err := walker.BlockByHeight(5); !errors.As(err, &aerr) {
		t.Fatalf("BlockByHeight(5): expected assertion, got %v", err)
	}
}

// TestChainWalkerEmptyIndex ensures a chain index without a best chain fails
// lookups.
func TestChainWalkerEmptyIndex(t *testing.T) {
	walker := NewChainWalker(newTestChainIndex(), testParams(nil))
	if _, err := walker.BlockByHeight(0); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("BlockByHeight(0): unexpected error: %v", err)
	}
	if _, err := walker.BestBlock(); err == nil {
		t.Fatal("BestBlock: expected error for empty index")
	}
	var zero chainhash.Hash
	hash, err := walker.BlockHashByHeight(-1)
	if err != nil || *hash == zero {
		t.Fatalf("BlockHashByHeight(-1): got (%v, %v)", hash, err)
	}
}

// TestViewBestChain ensures lookups made through a best chain view keep
// resolving against the tip the view was opened on.
func TestViewBestChain(t *testing.T) {
	idx, blocks := newTestChain(50)
	fork := idx.extend(blocks[5], 's', 3, 60)
	walker := NewChainWalker(idx, testParams(nil))

	errStop := errors.New("stop")
	err := walker.ViewBestChain(func(tip *BlockMeta, lookup TipLookup) error {
		if tip != blocks[49] {
			t.Fatalf("view tip %v, want %v", tip.Hash, blocks[49].Hash)
		}

		// Switch the best chain to the shorter fork.
		idx.setBest(fork[len(fork)-1])
		for _, height := range []int64{49, 30, 6, 0} {
			meta, err := lookup(height)
			if err != nil {
				t.Fatalf("lookup(%d): unexpected error: %v", height,
					err)
			}
			if meta != blocks[height] {
				t.Fatalf("lookup(%d): got %v, want %v", height,
					meta.Hash, blocks[height].Hash)
			}
		}
		if _, err := lookup(50); !errors.Is(err, ErrHeightNotFound) {
			t.Fatalf("lookup(50): unexpected error: %v", err)
		}
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("ViewBestChain: unexpected error: %v", err)
	}

	// Once the view is closed the fork is visible.
	meta, err := walker.BlockByHeight(8)
	if err != nil || meta != fork[2] {
		t.Fatalf("BlockByHeight(8) after reorganization: got (%v, %v)",
			meta, err)
	}
}
