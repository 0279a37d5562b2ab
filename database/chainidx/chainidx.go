// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package chainidx implements a persistent chain index on top of the storage
engines.

The index houses one fixed size record per block, keyed by the block hash,
along with the hash of the best chain tip.  Parents must be added before their
children, so every record above genesis links to a record one height below it.

Reads either go through the Store, which takes a fresh snapshot per call, or
through a View which reads from a single snapshot until it is released.  Both
satisfy blockchain.ChainIndex.
*/
package chainidx

import (
	"bytes"
	"os"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/espers/velocityd/blockchain"
	"github.com/espers/velocityd/database/engine"
	"github.com/espers/velocityd/database/engine/leveldb"
	"github.com/espers/velocityd/database/engine/pebbledb"
	"github.com/pkg/errors"
)

const (
	// TypeLevelDB selects the goleveldb engine.
	TypeLevelDB = "leveldb"

	// TypePebble selects the pebble engine.
	TypePebble = "pebble"
)

var (
	// SupportedTypes lists the supported engine types.
	SupportedTypes = []string{TypeLevelDB, TypePebble}

	// ErrUnknownType is returned when opening an index with an
	// unsupported engine type.
	ErrUnknownType = errors.New("unknown chain index type")

	// ErrOrphanBlock is returned when adding a block whose parent is not
	// indexed.
	ErrOrphanBlock = errors.New("parent block is not indexed")

	// ErrConflictingBlock is returned when adding a block which is already
	// indexed with different contents.
	ErrConflictingBlock = errors.New("block is indexed with different " +
		"contents")
)

// Store is a persistent chain index.
type Store struct {
	db engine.Engine

	// writeMtx serializes writers so parent checks see all earlier
	// writes.
	writeMtx sync.Mutex
}

// Ensure the store and its views satisfy the chain index interface.
var (
	_ blockchain.ChainIndex = (*Store)(nil)
	_ blockchain.ChainIndex = (*View)(nil)
)

// Open opens the chain index of the given engine type at the given path.  The
// index is created when it does not exist and create is set.
func Open(dbType, dbPath string, create bool) (*Store, error) {
	_, err := os.Stat(dbPath)
	exists := err == nil
	if !exists && !create {
		return nil, errors.Wrapf(err, "chain index %s does not exist",
			dbPath)
	}

	var db engine.Engine
	switch dbType {
	case TypeLevelDB:
		db, err = leveldb.NewDB(dbPath, !exists)
	case TypePebble:
		db, err = pebbledb.NewDB(dbPath, !exists, 0, 0)
	default:
		return nil, errors.Wrapf(ErrUnknownType, "type %q, supported "+
			"types %v", dbType, SupportedTypes)
	}
	if err != nil {
		return nil, err
	}

	if !exists {
		log.Infof("Created %s chain index at %s", dbType, dbPath)
	} else {
		log.Debugf("Opened %s chain index at %s", dbType, dbPath)
	}
	return New(db), nil
}

// New returns a chain index stored in the given engine.
func New(db engine.Engine) *Store {
	return &Store{db: db}
}

// Close closes the underlying engine.
func (s *Store) Close() error {
	return s.db.Close()
}

// View returns a read-only view of the index as of now.  It must be released
// after use.
func (s *Store) View() (*View, error) {
	snapshot, err := s.db.Snapshot()
	if err != nil {
		return nil, errors.Wrap(err, "unable to take chain index snapshot")
	}
	return &View{snapshot: snapshot}, nil
}

// LookupBlock returns the record of the block with the given hash.  It
// returns blockchain.ErrBlockNotFound when the block is not indexed.
//
// This function is part of the blockchain.ChainIndex interface.
func (s *Store) LookupBlock(hash *chainhash.Hash) (*blockchain.BlockMeta, error) {
	view, err := s.View()
	if err != nil {
		return nil, err
	}
	defer view.Release()
	return view.LookupBlock(hash)
}

// BestHash returns the hash of the best chain tip.  It returns
// blockchain.ErrBlockNotFound when no tip was set.
//
// This function is part of the blockchain.ChainIndex interface.
func (s *Store) BestHash() (*chainhash.Hash, error) {
	view, err := s.View()
	if err != nil {
		return nil, err
	}
	defer view.Release()
	return view.BestHash()
}

// ForEachBlock calls fn for every indexed block in hash order.  Iteration
// stops at the first error, which is returned.
func (s *Store) ForEachBlock(fn func(meta *blockchain.BlockMeta) error) error {
	view, err := s.View()
	if err != nil {
		return err
	}
	defer view.Release()
	return view.ForEachBlock(fn)
}

// PutBlocks adds the given blocks to the index in a single transaction.  The
// parent of every block above genesis must either be indexed already or come
// earlier in the same call.  Adding a block again with identical contents is
// a no-op.
func (s *Store) PutBlocks(metas ...*blockchain.BlockMeta) error {
	s.writeMtx.Lock()
	defer s.writeMtx.Unlock()

	view, err := s.View()
	if err != nil {
		return err
	}
	defer view.Release()

	pending := make(map[chainhash.Hash]*blockchain.BlockMeta, len(metas))
	lookup := func(hash *chainhash.Hash) (*blockchain.BlockMeta, error) {
		if meta, ok := pending[*hash]; ok {
			return meta, nil
		}
		return view.LookupBlock(hash)
	}

	tx, err := s.db.Transaction()
	if err != nil {
		return errors.Wrap(err, "unable to start chain index transaction")
	}
	defer tx.Discard()

	var added int
	for _, meta := range metas {
		if meta.Height < 0 {
			return errors.Errorf("block %v has negative height %d",
				meta.Hash, meta.Height)
		}

		serialized := serializeBlockMeta(meta)
		existing, err := lookup(&meta.Hash)
		switch {
		case err == nil:
			if !bytes.Equal(serializeBlockMeta(existing), serialized) {
				return errors.Wrapf(ErrConflictingBlock, "block %v",
					meta.Hash)
			}
			continue
		case !errors.Is(err, blockchain.ErrBlockNotFound):
			return err
		}

		if meta.Height > 0 {
			parent, err := lookup(&meta.PrevHash)
			if errors.Is(err, blockchain.ErrBlockNotFound) {
				return errors.Wrapf(ErrOrphanBlock, "block %v at "+
					"height %d, parent %v", meta.Hash,
					meta.Height, meta.PrevHash)
			}
			if err != nil {
				return err
			}
			if parent.Height != meta.Height-1 {
				return errors.Wrapf(ErrOrphanBlock, "block %v at "+
					"height %d has parent at height %d",
					meta.Hash, meta.Height, parent.Height)
			}
		}

		if err := tx.Put(blockKey(&meta.Hash), serialized); err != nil {
			return errors.Wrapf(err, "unable to store block %v",
				meta.Hash)
		}
		pending[meta.Hash] = meta
		added++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit chain index "+
			"transaction")
	}
	log.Debugf("Indexed %d new blocks", added)
	return nil
}

// SetBestHash makes the indexed block with the given hash the tip of the best
// chain.
func (s *Store) SetBestHash(hash *chainhash.Hash) error {
	s.writeMtx.Lock()
	defer s.writeMtx.Unlock()

	meta, err := s.LookupBlock(hash)
	if err != nil {
		return err
	}

	tx, err := s.db.Transaction()
	if err != nil {
		return errors.Wrap(err, "unable to start chain index transaction")
	}
	defer tx.Discard()
	if err := tx.Put(bestHashKey, hash[:]); err != nil {
		return errors.Wrap(err, "unable to store best hash")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit chain index "+
			"transaction")
	}

	log.Infof("Best chain tip is now %v at height %d", hash, meta.Height)
	return nil
}
