// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain_test

import (
	"math"
	"testing"

	"github.com/espers/velocityd/blockchain"
)

func TestCompactToDifficulty(t *testing.T) {
	tests := []struct {
		in  uint32
		out float64
	}{
		{0x1d00ffff, 1.0},
		{0x1b0404cb, 16307.420938523983},
		{0x1e00ffff, 1.0 / 256},
		{0x1c00ffff, 256.0},
		{0x1d007fff, 65535.0 / 32767.0},
		{0x207fffff, 65535.0 / 8388607.0 / 256 / 256 / 256},
	}

	for x, test := range tests {
		r := blockchain.CompactToDifficulty(test.in)
		if math.Abs(r-test.out) > test.out*1e-12 {
			t.Errorf("TestCompactToDifficulty test #%d (%08x) failed: "+
				"got %v want %v", x, test.in, r, test.out)
		}
	}
}

// TestCompactToDifficultyDeterministic ensures repeated conversions produce
// bit-identical results.
func TestCompactToDifficultyDeterministic(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x1b0404cb, 0x1c0ae493,
		0x1e0fffff, 0x180130e0} {

		want := math.Float64bits(blockchain.CompactToDifficulty(bits))
		for i := 0; i < 100; i++ {
			got := math.Float64bits(blockchain.CompactToDifficulty(bits))
			if got != want {
				t.Fatalf("conversion of %08x not deterministic: "+
					"%x != %x", bits, got, want)
			}
		}
	}
}

// TestCompactToDifficultyApprox checks the documented reference value with
// the precision reporting code displays it at.
func TestCompactToDifficultyApprox(t *testing.T) {
	got := blockchain.CompactToDifficulty(0x1b0404cb)
	if math.Abs(got-16307.42) > 0.005 {
		t.Fatalf("unexpected difficulty for 0x1b0404cb: got %.6f", got)
	}
	if got := blockchain.CompactToDifficulty(0x1d00ffff); got != 1.0 {
		t.Fatalf("unexpected difficulty for 0x1d00ffff: got %v", got)
	}
}
