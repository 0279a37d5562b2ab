// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/espers/velocityd/chaincfg"
)

// testBaseTime is the timestamp of the genesis block of the test chains.
const testBaseTime = 1500000000

// testChainIndex is an in-memory chain index for tests.  It counts lookups so
// tests can assert how much of the chain a query walked.
type testChainIndex struct {
	mtx     sync.Mutex
	blocks  map[chainhash.Hash]*BlockMeta
	best    *chainhash.Hash
	lookups int

	// onLookup is called after every block lookup with the number of
	// lookups so far.
	onLookup func(n int)
}

func newTestChainIndex() *testChainIndex {
	return &testChainIndex{blocks: make(map[chainhash.Hash]*BlockMeta)}
}

func (idx *testChainIndex) LookupBlock(hash *chainhash.Hash) (*BlockMeta, error) {
	idx.mtx.Lock()
	idx.lookups++
	n := idx.lookups
	meta, ok := idx.blocks[*hash]
	onLookup := idx.onLookup
	idx.mtx.Unlock()

	if onLookup != nil {
		onLookup(n)
	}
	if !ok {
		return nil, ErrBlockNotFound
	}
	return meta, nil
}

func (idx *testChainIndex) BestHash() (*chainhash.Hash, error) {
	idx.mtx.Lock()
	defer idx.mtx.Unlock()
	if idx.best == nil {
		return nil, ErrBlockNotFound
	}
	hash := *idx.best
	return &hash, nil
}

// resetLookups zeroes the lookup counter and returns its previous value.
func (idx *testChainIndex) resetLookups() int {
	idx.mtx.Lock()
	defer idx.mtx.Unlock()
	n := idx.lookups
	idx.lookups = 0
	return n
}

// setBest makes the given block the tip of the best chain.
func (idx *testChainIndex) setBest(meta *BlockMeta) {
	idx.mtx.Lock()
	hash := meta.Hash
	idx.best = &hash
	idx.mtx.Unlock()
}

// testHash derives a deterministic block hash from a branch tag and a height.
func testHash(branch byte, height int64) chainhash.Hash {
	var buf [9]byte
	buf[0] = branch
	binary.LittleEndian.PutUint64(buf[1:], uint64(height))
	return chainhash.HashH(buf[:])
}

// extend appends blocks to the chain ending in parent, spaced the given number
// of seconds apart, and returns the new blocks.  A nil parent starts a new
// chain at genesis.  Every third block is marked as staked.
func (idx *testChainIndex) extend(parent *BlockMeta, branch byte, count int,
	spacing int64) []*BlockMeta {

	idx.mtx.Lock()
	defer idx.mtx.Unlock()

	blocks := make([]*BlockMeta, 0, count)
	for i := 0; i < count; i++ {
		meta := &BlockMeta{Bits: 0x1d00ffff}
		if parent == nil {
			meta.Timestamp = testBaseTime
		} else {
			meta.PrevHash = parent.Hash
			meta.Height = parent.Height + 1
			meta.Timestamp = parent.Timestamp + spacing
		}
		meta.Hash = testHash(branch, meta.Height)
		meta.ProofOfStake = meta.Height%3 == 0
		idx.blocks[meta.Hash] = meta
		blocks = append(blocks, meta)
		parent = meta
	}
	return blocks
}

// newTestChain returns a chain index holding a best chain of the given number
// of blocks spaced a minute apart.
func newTestChain(numBlocks int) (*testChainIndex, []*BlockMeta) {
	idx := newTestChainIndex()
	blocks := idx.extend(nil, 'm', numBlocks, 60)
	idx.setBest(blocks[len(blocks)-1])
	return idx, blocks
}

// testParams returns chain parameters with the given tier table.
func testParams(tiers chaincfg.VelocityTiers) *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	params.GenesisEraHash = &chainhash.Hash{0x35, 0x1c}
	params.VelocityTiers = tiers
	return &params
}

// testCoinbase returns a coinbase transaction paying the given value.
func testCoinbase(value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  []byte{0x51},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(value, []byte{0x51}))
	return tx
}

// testSpend returns a transaction spending the given outpoints into outputs of
// the given values.
func testSpend(prevOuts []wire.OutPoint, values ...int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for i := range prevOuts {
		tx.AddTxIn(wire.NewTxIn(&prevOuts[i], nil, nil))
	}
	for _, value := range values {
		tx.AddTxOut(wire.NewTxOut(value, []byte{0x51}))
	}
	return tx
}

// testOutPoint returns a distinct outpoint for the given index.
func testOutPoint(i uint32) wire.OutPoint {
	return wire.OutPoint{Hash: testHash('o', int64(i)), Index: i}
}

// testBlock returns a block building on prev, created the given number of
// seconds after it and holding the given transactions.
func testBlock(prev *BlockMeta, delta int64, txns ...*wire.MsgTx) *btcutil.Block {
	msgBlock := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: prev.Hash,
			Timestamp: time.Unix(prev.Timestamp+delta, 0),
			Bits:      0x1d00ffff,
		},
		Transactions: txns,
	}
	return btcutil.NewBlock(&msgBlock)
}
