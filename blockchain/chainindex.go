// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// BlockMeta houses the block index fields Velocity and the chain query
// helpers need.  Records are owned by the chain index and must be treated as
// immutable.
type BlockMeta struct {
	// Hash is the identifier of the block.
	Hash chainhash.Hash

	// PrevHash is the identifier of the parent block.  It is the zero hash
	// for the genesis block.
	PrevHash chainhash.Hash

	// Height is the height of the block in the chain.
	Height int64

	// Timestamp is the block time in seconds since the unix epoch.
	Timestamp int64

	// Bits is the compact difficulty target of the block.
	Bits uint32

	// ProofOfStake is set for blocks produced by staking.
	ProofOfStake bool
}

// Time returns the block time.
func (m *BlockMeta) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

// ChainIndex is the read-only view of the block index the chain query helpers
// walk.  Implementations must present a consistent snapshot for the duration
// of a single query.
type ChainIndex interface {
	// LookupBlock returns the record for the block with the given hash.
	// An error matching ErrBlockNotFound is returned for unknown blocks.
	LookupBlock(hash *chainhash.Hash) (*BlockMeta, error)

	// BestHash returns the hash of the tip of the current best chain.
	BestHash() (*chainhash.Hash, error)
}

// PrevOutputFetcher resolves the value of a previous transaction output spent
// by a block.
type PrevOutputFetcher interface {
	// FetchPrevOutputValue returns the value of the referenced output and
	// whether it was found.
	FetchPrevOutputValue(op wire.OutPoint) (int64, bool)
}

// PrevOutputValues is a PrevOutputFetcher backed by a map.
type PrevOutputValues map[wire.OutPoint]int64

// FetchPrevOutputValue returns the value stored for the outpoint.
func (p PrevOutputValues) FetchPrevOutputValue(op wire.OutPoint) (int64, bool) {
	value, ok := p[op]
	return value, ok
}
