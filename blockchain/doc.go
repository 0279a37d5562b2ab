// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package blockchain implements the Velocity block acceptance rules and the chain
query helpers reporting code builds on.

Velocity gates which blocks may extend the best chain.  Every network carries
an ordered table of tiers (see chaincfg.VelocityTiers) and the tier active at a
candidate block's height decides the minimum transaction count, value, fee and
block spacing the block has to meet.  All of these checks are consensus
critical and must produce identical results on every node.

The chain query helpers operate on a read-only chain index supplied by the
caller:

  - ChainWalker resolves the block at a given height on the best chain by
    following parent links back from the tip
  - CompactToDifficulty converts compact difficulty bits into the floating
    point difficulty ratio shown to users
  - EstimateStake and StakeReporter derive staking statistics from stake
    weights and recent chain history

# Errors

Velocity rejections are reported as a RuleError with an ErrorCode describing
the violated constraint.  Lookups beyond the best chain fail with an error
matching ErrHeightNotFound, while inconsistencies in the chain index or
malformed inputs are reported as an AssertError since they indicate a caller
bug rather than a rule violation.
*/
package blockchain
