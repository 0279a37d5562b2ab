// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/espers/velocityd/blockchain"
	"github.com/espers/velocityd/database/chainidx"
)

// maxLineSize is the longest accepted line of an import file.
const maxLineSize = 64 * 1024

// blockRecord is one line of an import file.  The field names follow the
// verbose getblock result of the node.
type blockRecord struct {
	Hash         string `json:"hash"`
	PrevHash     string `json:"previousblockhash"`
	Height       int64  `json:"height"`
	Time         int64  `json:"time"`
	Bits         string `json:"bits"`
	ProofOfStake bool   `json:"proofofstake"`
}

// parseBits parses compact difficulty bits in hex, with or without a 0x
// prefix.
func parseBits(str string) (uint32, error) {
	str = strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	bits, err := strconv.ParseUint(str, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid bits %q: %w", str, err)
	}
	return uint32(bits), nil
}

// blockMeta converts the record to a chain index record.  Genesis may omit
// the previous block hash.
func (r *blockRecord) blockMeta() (*blockchain.BlockMeta, error) {
	hash, err := chainhash.NewHashFromStr(r.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q: %w", r.Hash, err)
	}
	meta := blockchain.BlockMeta{
		Hash:         *hash,
		Height:       r.Height,
		Timestamp:    r.Time,
		ProofOfStake: r.ProofOfStake,
	}
	if r.PrevHash != "" {
		prevHash, err := chainhash.NewHashFromStr(r.PrevHash)
		if err != nil {
			return nil, fmt.Errorf("invalid previous hash %q: %w",
				r.PrevHash, err)
		}
		meta.PrevHash = *prevHash
	} else if r.Height != 0 {
		return nil, fmt.Errorf("block %v at height %d has no previous "+
			"block", hash, r.Height)
	}
	if meta.Bits, err = parseBits(r.Bits); err != nil {
		return nil, err
	}
	if r.Time <= 0 {
		return nil, fmt.Errorf("block %v has invalid time %d", hash,
			r.Time)
	}
	return &meta, nil
}

// importResults houses the statistics of an import.
type importResults struct {
	blocksRead int
	best       *blockchain.BlockMeta
}

// importBlocks reads block records, one JSON object per line, and adds them
// to the chain index in batches.  Blank lines are skipped.  Unless noBest is
// set the highest imported block becomes the best chain tip.
func importBlocks(store *chainidx.Store, r io.Reader, batchSize int,
	noBest bool) (*importResults, error) {

	var results importResults
	batch := make([]*blockchain.BlockMeta, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.PutBlocks(batch...); err != nil {
			return err
		}
		log.Debugf("Indexed %d blocks", results.blocksRead)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record blockRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		meta, err := record.blockMeta()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		batch = append(batch, meta)
		results.blocksRead++
		if results.best == nil || meta.Height > results.best.Height {
			results.best = meta
		}
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum+1, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if !noBest && results.best != nil {
		if err := store.SetBestHash(&results.best.Hash); err != nil {
			return nil, err
		}
	}
	return &results, nil
}
