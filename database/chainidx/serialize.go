// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainidx

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/espers/velocityd/blockchain"
	"github.com/pkg/errors"
)

const (
	// blockRecordSize is the size of a serialized block record:
	//
	//   Field        Type             Size
	//   hash         chainhash.Hash   32
	//   prev hash    chainhash.Hash   32
	//   height       int64            8
	//   timestamp    int64            8
	//   bits         uint32           4
	//   flags        byte             1
	blockRecordSize = 2*chainhash.HashSize + 8 + 8 + 4 + 1

	// flagProofOfStake marks a staked block.
	flagProofOfStake = 1 << 0
)

var (
	// blockKeyPrefix prefixes the keys of the block records, which are
	// followed by the block hash.
	blockKeyPrefix = []byte("blk")

	// bestHashKey is the key of the hash of the best chain tip.
	bestHashKey = []byte("besthash")

	// ErrCorruptRecord is returned for block records which can not be
	// decoded.
	ErrCorruptRecord = errors.New("corrupt block record")

	byteOrder = binary.LittleEndian
)

// blockKey returns the key of the block record with the given hash.
func blockKey(hash *chainhash.Hash) []byte {
	key := make([]byte, len(blockKeyPrefix)+chainhash.HashSize)
	copy(key, blockKeyPrefix)
	copy(key[len(blockKeyPrefix):], hash[:])
	return key
}

// serializeBlockMeta returns the block record of the given block.
func serializeBlockMeta(meta *blockchain.BlockMeta) []byte {
	buf := make([]byte, blockRecordSize)
	offset := copy(buf, meta.Hash[:])
	offset += copy(buf[offset:], meta.PrevHash[:])
	byteOrder.PutUint64(buf[offset:], uint64(meta.Height))
	offset += 8
	byteOrder.PutUint64(buf[offset:], uint64(meta.Timestamp))
	offset += 8
	byteOrder.PutUint32(buf[offset:], meta.Bits)
	offset += 4
	if meta.ProofOfStake {
		buf[offset] |= flagProofOfStake
	}
	return buf
}

// deserializeBlockMeta decodes a block record.
func deserializeBlockMeta(serialized []byte) (*blockchain.BlockMeta, error) {
	if len(serialized) != blockRecordSize {
		return nil, errors.Wrapf(ErrCorruptRecord, "record is %d bytes, "+
			"want %d", len(serialized), blockRecordSize)
	}

	var meta blockchain.BlockMeta
	offset := copy(meta.Hash[:], serialized)
	offset += copy(meta.PrevHash[:], serialized[offset:])
	meta.Height = int64(byteOrder.Uint64(serialized[offset:]))
	offset += 8
	meta.Timestamp = int64(byteOrder.Uint64(serialized[offset:]))
	offset += 8
	meta.Bits = byteOrder.Uint32(serialized[offset:])
	offset += 4
	flags := serialized[offset]
	if flags&^flagProofOfStake != 0 {
		return nil, errors.Wrapf(ErrCorruptRecord, "unknown flags %#x",
			flags)
	}
	meta.ProofOfStake = flags&flagProofOfStake != 0

	if meta.Height < 0 {
		return nil, errors.Wrapf(ErrCorruptRecord, "negative height %d",
			meta.Height)
	}
	return &meta, nil
}
