// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math"
	"math/bits"
	"time"

	"github.com/espers/velocityd/chaincfg"
)

const (
	// minSharePercent and maxSharePercent bound the reported stake weight
	// shares so a gauge never shows an empty or full bar.
	minSharePercent = 1.0
	maxSharePercent = 99.0

	secondsPerHour = 3600
)

// StakeMetrics houses the staking statistics derived from the local and the
// network stake weight.
type StakeMetrics struct {
	// Staking is set when the wallet searched for a kernel recently and
	// owns stake weight.
	Staking bool

	// ExpectedSeconds is the expected time until the wallet stakes the
	// next block.  It is zero when not staking.
	ExpectedSeconds int64

	// LocalSharePercent is the share of the local stake weight.
	LocalSharePercent float64

	// NetworkSharePercent is 100 minus LocalSharePercent.
	NetworkSharePercent float64
}

// expectedStakeSeconds returns targetSpacing * networkWeight / localWeight
// without overflowing the intermediate product.  The result saturates at the
// largest int64.
func expectedStakeSeconds(targetSpacing int64, networkWeight, localWeight uint64) int64 {
	if targetSpacing <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(targetSpacing), networkWeight)
	if hi >= localWeight {
		return math.MaxInt64
	}
	quo, _ := bits.Div64(hi, lo, localWeight)
	if quo > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(quo)
}

// EstimateStake derives the staking statistics from the local and network
// stake weights, the last kernel search interval of the staking engine and the
// target block spacing in seconds.
//
// The local share is the local weight relative to the network weight.  When
// the local weight exceeds the network estimate the ratio is inverted so the
// share stays within a displayable range.  Both shares are clamped to
// [1, 99].
func EstimateStake(localWeight, networkWeight uint64, lastSearchInterval,
	targetSpacing int64) StakeMetrics {

	var m StakeMetrics
	m.Staking = lastSearchInterval != 0 && localWeight != 0
	if m.Staking {
		m.ExpectedSeconds = expectedStakeSeconds(targetSpacing,
			networkWeight, localWeight)
	}

	local, network := float64(localWeight), float64(networkWeight)
	var share float64
	switch {
	case localWeight == 0:
	case localWeight > networkWeight:
		share = network / local * 100
	default:
		share = local / network * 100
	}
	m.LocalSharePercent = share
	m.NetworkSharePercent = 100 - share

	switch {
	case m.LocalSharePercent < minSharePercent:
		m.LocalSharePercent = minSharePercent
		m.NetworkSharePercent = 100 - minSharePercent
	case m.LocalSharePercent > maxSharePercent:
		m.LocalSharePercent = maxSharePercent
		m.NetworkSharePercent = 100 - maxSharePercent
	}

	return m
}

// StakeReport houses the staking statistics together with the state of the
// best chain they were computed against.
type StakeReport struct {
	StakeMetrics

	// Height and Hash identify the best chain tip.
	Height int64
	Hash   string

	// TipTime is the timestamp of the best chain tip.
	TipTime time.Time

	// ProofOfStake is set when the best chain tip was staked.
	ProofOfStake bool

	// Difficulty is the difficulty ratio of the best chain tip.
	Difficulty float64

	// Blocks produced within the trailing hour, day, week and month.
	BlocksPastHour  int64
	BlocksPastDay   int64
	BlocksPastWeek  int64
	BlocksPastMonth int64
}

// StakeReporter computes staking statistics over the best chain.
type StakeReporter struct {
	walker *ChainWalker
	params *chaincfg.Params
	now    func() time.Time
}

// NewStakeReporter returns a reporter reading the chain through the walker.
// The clock defaults to time.Now when nil.
func NewStakeReporter(walker *ChainWalker, params *chaincfg.Params,
	now func() time.Time) *StakeReporter {

	if now == nil {
		now = time.Now
	}
	return &StakeReporter{walker: walker, params: params, now: now}
}

// blocksSince returns the number of blocks on the chain ending in tip with a
// timestamp at or after the cutoff.
//
// Block timestamps are treated as non-decreasing with height so the oldest
// counted block is found with a binary search.  The position below genesis
// counts as infinitely old, so a window covering the whole chain yields the
// tip height plus one.
func blocksSince(tip *BlockMeta, lookup TipLookup, cutoff int64) (int64, error) {
	if cutoff <= 0 {
		return tip.Height + 1, nil
	}
	if tip.Timestamp < cutoff {
		return 0, nil
	}

	// Invariant: the block at lo is older than the cutoff while the block
	// at hi is not.
	lo, hi := int64(-1), tip.Height
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		meta, err := lookup(mid)
		if err != nil {
			return 0, err
		}
		if meta.Timestamp < cutoff {
			lo = mid
		} else {
			hi = mid
		}
	}

	return tip.Height - lo, nil
}

// hoursBefore returns the unix time the given number of hours before now.
func hoursBefore(now int64, hours int) int64 {
	return now - int64(hours)*secondsPerHour
}

// BlocksInPastHours returns the number of best chain blocks with a timestamp
// at or after the given number of hours ago.  The count is taken against the
// best chain tip at the time of the call.
func (r *StakeReporter) BlocksInPastHours(hours int) (int64, error) {
	var count int64
	err := r.walker.ViewBestChain(func(tip *BlockMeta, lookup TipLookup) error {
		var err error
		cutoff := hoursBefore(r.now().Unix(), hours)
		count, err = blocksSince(tip, lookup, cutoff)
		return err
	})
	return count, err
}

// Report computes the staking statistics for the given stake weights along
// with the difficulty and recent block production of the best chain.  All of
// the figures are taken against the same best chain tip.
func (r *StakeReporter) Report(localWeight, networkWeight uint64,
	lastSearchInterval int64) (*StakeReport, error) {

	now := r.now().Unix()
	var report StakeReport
	err := r.walker.ViewBestChain(func(tip *BlockMeta, lookup TipLookup) error {
		report = StakeReport{
			StakeMetrics: EstimateStake(localWeight, networkWeight,
				lastSearchInterval, r.params.TargetSpacingSeconds()),
			Height:       tip.Height,
			Hash:         tip.Hash.String(),
			TipTime:      tip.Time(),
			ProofOfStake: tip.ProofOfStake,
			Difficulty:   CompactToDifficulty(tip.Bits),
		}

		windows := []struct {
			hours int
			count *int64
		}{
			{1, &report.BlocksPastHour},
			{24, &report.BlocksPastDay},
			{24 * 7, &report.BlocksPastWeek},
			{24 * 30, &report.BlocksPastMonth},
		}
		for _, window := range windows {
			var err error
			*window.count, err = blocksSince(tip, lookup,
				hoursBefore(now, window.hours))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
