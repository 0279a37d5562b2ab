// Copyright (c) 2014-2017 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"testing"
)

// TestErrorCodeStringer tests the stringized output for the ErrorCode type.
func TestErrorCodeStringer(t *testing.T) {
	tests := []struct {
		in   ErrorCode
		want string
	}{
		{ErrPreviousBlockUnknown, "ErrPreviousBlockUnknown"},
		{ErrKnownInvalidBlock, "ErrKnownInvalidBlock"},
		{ErrVelocityTxCount, "ErrVelocityTxCount"},
		{ErrVelocityFunds, "ErrVelocityFunds"},
		{ErrVelocityValue, "ErrVelocityValue"},
		{ErrVelocityFee, "ErrVelocityFee"},
		{ErrVelocitySpacing, "ErrVelocitySpacing"},
		{ErrVelocityExplicit, "ErrVelocityExplicit"},
		{ErrBadTxOutValue, "ErrBadTxOutValue"},
		{0xffff, "Unknown ErrorCode (65535)"},
	}

	// Detect additional error codes that don't have the stringer added.
	if len(tests)-1 != int(numErrorCodes) {
		t.Errorf("It appears an error code was added without adding an " +
			"associated stringer test")
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
			continue
		}
	}
}

// TestRuleError tests the error output for the RuleError type.
func TestRuleError(t *testing.T) {
	tests := []struct {
		in   RuleError
		want string
	}{
		{
			RuleError{Description: "insufficient transactions"},
			"insufficient transactions",
		},
		{
			RuleError{Description: "human-readable error"},
			"human-readable error",
		},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("Error #%d\n got: %s want: %s", i, result,
				test.want)
			continue
		}
	}
}

// TestIsErrorCode ensures rule errors are matched by code, including when
// wrapped.
func TestIsErrorCode(t *testing.T) {
	err := ruleError(ErrVelocityFee, "fee below minimum")
	wrapped := fmt.Errorf("block 1234: %w", err)

	tests := []struct {
		err  error
		code ErrorCode
		want bool
	}{
		{err, ErrVelocityFee, true},
		{wrapped, ErrVelocityFee, true},
		{err, ErrVelocityValue, false},
		{AssertError("bad"), ErrVelocityFee, false},
		{nil, ErrVelocityFee, false},
	}

	for i, test := range tests {
		if got := IsErrorCode(test.err, test.code); got != test.want {
			t.Errorf("IsErrorCode #%d: got %v want %v", i, got,
				test.want)
		}
	}
}
