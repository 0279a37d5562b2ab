// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
)

// VelocityTier is one row of the Velocity constraint table.  A tier applies to
// every block from its activation height up to, but not including, the
// activation height of the next tier.
type VelocityTier struct {
	// ActivationHeight is the first block height the tier applies to.
	ActivationHeight int64

	// Enabled toggles enforcement of the minimum transaction count.
	Enabled bool

	// MinTxCount is the minimum number of transactions a block must carry.
	// Zero disables the check.
	MinTxCount int64

	// MinValue is the minimum aggregate output value of a block's
	// transactions.  Zero disables the check.
	MinValue btcutil.Amount

	// MinFee is the minimum aggregate fee of a block's fee-bearing
	// transactions.  Zero disables the check.
	MinFee btcutil.Amount

	// MinRateSeconds is the smallest time gap to the previous block that
	// is accepted.  Zero disables the check.
	MinRateSeconds int64

	// TargetRateSeconds is the reference spacing above which a block is
	// considered to satisfy the rate constraints outright.  Zero disables
	// it.
	TargetRateSeconds int64

	// Explicit puts the tier in the strict mode where any non-zero
	// transaction count, value or fee minimum rejects the block.
	Explicit bool
}

// HasMinimums returns whether any of the transaction count, value or fee
// minimums is set.
func (t *VelocityTier) HasMinimums() bool {
	return t.MinTxCount > 0 || t.MinValue > 0 || t.MinFee > 0
}

// VelocityTiers is a table of Velocity tiers ordered by strictly increasing
// activation height.
type VelocityTiers []VelocityTier

// Resolve returns the index of the tier active at the given height, which is
// the last tier whose activation height is at or below it.  The second return
// value is false when no tier is active yet.
func (v VelocityTiers) Resolve(height int64) (int, bool) {
	// The first tier activating above the height bounds the search.
	i := sort.Search(len(v), func(i int) bool {
		return v[i].ActivationHeight > height
	})
	if i == 0 {
		return -1, false
	}
	return i - 1, true
}

// Validate returns an error when the activation heights of the table are not
// strictly increasing or a tier carries a negative threshold.
func (v VelocityTiers) Validate() error {
	for i := range v {
		tier := &v[i]
		if i > 0 && tier.ActivationHeight <= v[i-1].ActivationHeight {
			return fmt.Errorf("velocity tier %d activation height %d "+
				"does not follow tier %d activation height %d", i,
				tier.ActivationHeight, i-1, v[i-1].ActivationHeight)
		}
		if tier.MinTxCount < 0 || tier.MinValue < 0 || tier.MinFee < 0 ||
			tier.MinRateSeconds < 0 || tier.TargetRateSeconds < 0 {

			return fmt.Errorf("velocity tier %d has a negative "+
				"threshold", i)
		}
	}
	return nil
}
