// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

// difficultyOneShift is the compact exponent at which a mantissa of 0xffff
// corresponds to a difficulty of exactly one.
const difficultyOneShift = 29

// CompactToDifficulty converts compact difficulty bits into the floating point
// difficulty ratio relative to the easiest target 0x1d00ffff.
//
// The most significant 8 bits of the compact form are the base 256 exponent
// and the least significant 24 bits the mantissa.  The ratio of 0xffff to the
// mantissa is scaled by 256 for every step the exponent is away from 29.  The
// scaling is done step by step so every node arrives at the exact same float.
func CompactToDifficulty(bits uint32) float64 {
	shift := (bits >> 24) & 0xff
	diff := float64(0x0000ffff) / float64(bits&0x00ffffff)

	for shift < difficultyOneShift {
		diff *= 256.0
		shift++
	}
	for shift > difficultyOneShift {
		diff /= 256.0
		shift--
	}

	return diff
}
