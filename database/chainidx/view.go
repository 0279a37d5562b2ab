// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainidx

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/espers/velocityd/blockchain"
	"github.com/espers/velocityd/database/engine"
	"github.com/pkg/errors"
)

// View is a consistent read-only view of a chain index.  A chain walker given
// a view does not observe later writes to the index.
type View struct {
	snapshot engine.Snapshot
}

// Release releases the snapshot backing the view.
func (v *View) Release() {
	v.snapshot.Release()
}

// LookupBlock returns the record of the block with the given hash.
//
// This function is part of the blockchain.ChainIndex interface.
func (v *View) LookupBlock(hash *chainhash.Hash) (*blockchain.BlockMeta, error) {
	serialized, err := v.snapshot.Get(blockKey(hash))
	if errors.Is(err, engine.ErrNotFound) {
		return nil, errors.Wrapf(blockchain.ErrBlockNotFound, "block %v",
			hash)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read block %v", hash)
	}

	meta, err := deserializeBlockMeta(serialized)
	if err != nil {
		return nil, errors.Wrapf(err, "block %v", hash)
	}
	if meta.Hash != *hash {
		return nil, errors.Wrapf(ErrCorruptRecord, "record of block %v "+
			"holds block %v", hash, meta.Hash)
	}
	return meta, nil
}

// BestHash returns the hash of the best chain tip.
//
// This function is part of the blockchain.ChainIndex interface.
func (v *View) BestHash() (*chainhash.Hash, error) {
	serialized, err := v.snapshot.Get(bestHashKey)
	if errors.Is(err, engine.ErrNotFound) {
		return nil, errors.Wrap(blockchain.ErrBlockNotFound, "no best "+
			"chain tip")
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to read best hash")
	}

	hash, err := chainhash.NewHash(serialized)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "best hash: %v", err)
	}
	return hash, nil
}

// ForEachBlock calls fn for every indexed block in hash order.
func (v *View) ForEachBlock(fn func(meta *blockchain.BlockMeta) error) error {
	iter := v.snapshot.NewIterator(engine.BytesPrefix(blockKeyPrefix))
	defer iter.Release()

	for iter.Next() {
		meta, err := deserializeBlockMeta(iter.Value())
		if err != nil {
			return errors.Wrapf(err, "key %x", iter.Key())
		}
		if err := fn(meta); err != nil {
			return err
		}
	}
	return iter.Error()
}
