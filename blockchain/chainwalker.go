// Copyright (c) 2017 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/espers/velocityd/chaincfg"
)

// approxNodesPerWeek is an approximation of the number of new blocks there are
// in a week on average.
const approxNodesPerWeek = 6 * 24 * 7

// ChainWalker resolves blocks on the current best chain by height.
//
// Lookups follow parent links backwards from the best tip of the chain index.
// The walker remembers the part of the best chain it has already walked as a
// flat slice indexed by height.  The slice is only populated from the tip down
// to the lowest height that was ever requested, so a lookup only costs the
// distance to the closest already known block.  Whenever the tip of the chain
// index changes, the view is repaired by walking back from the new tip until
// the common ancestor with the previous view, since everything below it is
// unaffected by the reorganization.
//
// For example, assume a chain index with a side chain as depicted below:
//
//	genesis -> 1 -> 2 -> 3 -> 4  -> 5 ->  6  -> 7  -> 8
//	                      \-> 4a -> 5a -> 6a
//
// After the tip moves from 8 to 6a only 4a, 5a and 6a are walked, while the
// entries for genesis through 3 stay in place.
type ChainWalker struct {
	index  ChainIndex
	params *chaincfg.Params

	mtx sync.Mutex

	// nodes is the walked part of the best chain.  Only the entries from
	// low to the tip are populated.
	nodes []*BlockMeta
	low   int64
}

// NewChainWalker returns a walker resolving heights against the best chain of
// the given chain index.
func NewChainWalker(index ChainIndex, params *chaincfg.Params) *ChainWalker {
	return &ChainWalker{
		index:  index,
		params: params,
	}
}

// lookupBlock fetches a block record from the chain index.  A block that is
// referenced by the chain but missing from the index is an inconsistency of
// the index and is reported as such.
func (w *ChainWalker) lookupBlock(hash *chainhash.Hash) (*BlockMeta, error) {
	meta, err := w.index.LookupBlock(hash)
	if errors.Is(err, ErrBlockNotFound) {
		return nil, AssertError(fmt.Sprintf("chain index is missing "+
			"block %v", hash))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to look up block %v: %w", hash,
			err)
	}
	return meta, nil
}

// parentOf returns the parent of the given block and ensures the index links
// it at the height directly below.
func (w *ChainWalker) parentOf(node *BlockMeta) (*BlockMeta, error) {
	parent, err := w.lookupBlock(&node.PrevHash)
	if err != nil {
		return nil, err
	}
	if parent.Height != node.Height-1 {
		return nil, AssertError(fmt.Sprintf("block %v at height %d has "+
			"parent %v at height %d", node.Hash, node.Height,
			parent.Hash, parent.Height))
	}
	return parent, nil
}

// tip returns the tip of the walked view.
//
// This function MUST be called with the walker mutex locked.
func (w *ChainWalker) tip() *BlockMeta {
	if len(w.nodes) == 0 {
		return nil
	}
	return w.nodes[len(w.nodes)-1]
}

// syncTip brings the walked view in line with the current best tip of the
// chain index and returns the tip.
//
// This function MUST be called with the walker mutex locked.
func (w *ChainWalker) syncTip() (*BlockMeta, error) {
	bestHash, err := w.index.BestHash()
	if err != nil {
		return nil, fmt.Errorf("unable to obtain best chain tip: %w", err)
	}
	if tip := w.tip(); tip != nil && tip.Hash == *bestHash {
		return tip, nil
	}

	node, err := w.lookupBlock(bestHash)
	if err != nil {
		return nil, err
	}
	if node.Height < 0 {
		return nil, AssertError(fmt.Sprintf("best block %v has negative "+
			"height %d", node.Hash, node.Height))
	}

	// Resize the view to the new tip height.  Nothing below the lowest
	// walked height is known, so when the new tip falls below it the view
	// starts over at the new tip.
	needed := node.Height + 1
	if len(w.nodes) == 0 || node.Height < w.low {
		w.resize(needed, true)
		w.nodes[node.Height] = node
		w.low = node.Height
		return node, nil
	}
	w.resize(needed, false)

	// Walk back from the new tip replacing entries until reaching a block
	// that is already part of the view.  Entries below the lowest walked
	// height are not tracked, so the walk never needs to go beyond it.
	tip := node
	for {
		if existing := w.nodes[node.Height]; existing != nil &&
			existing.Hash == node.Hash {

			break
		}
		w.nodes[node.Height] = node
		if node.Height == w.low {
			break
		}
		node, err = w.parentOf(node)
		if err != nil {
			w.reset()
			return nil, err
		}
	}

	return tip, nil
}

// resize sets the length of the view to the given number of entries.  The
// slice is created with additional capacity for the underlying array as
// append would do in order to reduce overhead when extending the chain later.
// Entries that become part of the view are cleared, as are all of them when
// clear is set.
//
// This function MUST be called with the walker mutex locked.
func (w *ChainWalker) resize(needed int64, clear bool) {
	prevLen := int64(len(w.nodes))
	if int64(cap(w.nodes)) < needed {
		nodes := make([]*BlockMeta, needed, needed+approxNodesPerWeek)
		if !clear {
			copy(nodes, w.nodes)
		}
		w.nodes = nodes
		return
	}

	w.nodes = w.nodes[0:needed]
	start := prevLen
	if clear {
		start = 0
	}
	for i := start; i < needed; i++ {
		w.nodes[i] = nil
	}
}

// reset drops the walked view.  It is used after the chain index reported an
// inconsistency so no partially repaired view survives.
//
// This function MUST be called with the walker mutex locked.
func (w *ChainWalker) reset() {
	w.nodes = w.nodes[:0]
	w.low = 0
}

// blockByHeight returns the record of the best chain block at the given
// height.
//
// This function MUST be called with the walker mutex locked.
func (w *ChainWalker) blockByHeight(height int64) (*BlockMeta, error) {
	tip, err := w.syncTip()
	if err != nil {
		return nil, err
	}
	return w.blockBelowTip(tip, height)
}

// blockBelowTip returns the record of the block at the given height on the
// chain ending in tip, which must be the tip of the walked view.
//
// This function MUST be called with the walker mutex locked.
func (w *ChainWalker) blockBelowTip(tip *BlockMeta, height int64) (*BlockMeta, error) {
	if height < 0 || height > tip.Height {
		return nil, fmt.Errorf("height %d outside of best chain [0, %d]: "+
			"%w", height, tip.Height, ErrHeightNotFound)
	}

	// Extend the view downwards until the height is covered.
	for w.low > height {
		parent, err := w.parentOf(w.nodes[w.low])
		if err != nil {
			w.reset()
			return nil, err
		}
		w.nodes[parent.Height] = parent
		w.low = parent.Height
	}

	return w.nodes[height], nil
}

// TipLookup resolves blocks by height on a best chain whose tip is fixed for
// the lifetime of the lookup.
type TipLookup func(height int64) (*BlockMeta, error)

// ViewBestChain calls fn with the current best chain tip and a lookup of the
// blocks below it.  Every lookup made by fn resolves against that same tip,
// even when the best tip of the chain index moves in the meantime.  The error
// returned by fn is passed through.
//
// The walker is locked while fn runs, so fn must not call any other method of
// the walker.
func (w *ChainWalker) ViewBestChain(fn func(tip *BlockMeta, lookup TipLookup) error) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	tip, err := w.syncTip()
	if err != nil {
		return err
	}
	return fn(tip, func(height int64) (*BlockMeta, error) {
		if len(w.nodes) == 0 {
			return nil, AssertError("best chain lookup used after " +
				"the walked view was dropped")
		}
		return w.blockBelowTip(tip, height)
	})
}

// BlockByHeight returns the record of the block at the given height on the
// current best chain.  An error matching ErrHeightNotFound is returned when
// the height is negative or above the best chain tip.
//
// This function is safe for concurrent access.
func (w *ChainWalker) BlockByHeight(height int64) (*BlockMeta, error) {
	w.mtx.Lock()
	meta, err := w.blockByHeight(height)
	w.mtx.Unlock()
	return meta, err
}

// BlockHashByHeight returns the hash of the block at the given height on the
// current best chain.
//
// Heights below zero resolve to the genesis era hash of the network instead of
// failing.  Heights above the best chain tip fail with an error
// matching ErrHeightNotFound.
//
// This function is safe for concurrent access.
func (w *ChainWalker) BlockHashByHeight(height int64) (*chainhash.Hash, error) {
	if height < 0 {
		hash := *w.params.GenesisEraHash
		return &hash, nil
	}

	meta, err := w.BlockByHeight(height)
	if err != nil {
		return nil, err
	}
	hash := meta.Hash
	return &hash, nil
}

// BlockTimeByHeight returns the timestamp of the block at the given height on
// the current best chain.  The genesis era position below height zero has no
// block record and reports a timestamp of zero.
//
// This function is safe for concurrent access.
func (w *ChainWalker) BlockTimeByHeight(height int64) (int64, error) {
	if height < 0 {
		return 0, nil
	}

	meta, err := w.BlockByHeight(height)
	if err != nil {
		return 0, err
	}
	return meta.Timestamp, nil
}

// BestBlock returns the record of the current best chain tip.
//
// This function is safe for concurrent access.
func (w *ChainWalker) BestBlock() (*BlockMeta, error) {
	w.mtx.Lock()
	tip, err := w.syncTip()
	w.mtx.Unlock()
	return tip, err
}
