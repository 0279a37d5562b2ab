// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockNotFound is returned by chain index implementations when the
	// requested block hash is not known.
	ErrBlockNotFound = errors.New("block not found")

	// ErrHeightNotFound indicates a height lookup outside of the range of
	// the current best chain.
	ErrHeightNotFound = errors.New("no block at requested height")
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrPreviousBlockUnknown indicates that the previous block is not
	// known to the chain index.
	ErrPreviousBlockUnknown ErrorCode = iota

	// ErrKnownInvalidBlock indicates the block was already rejected by the
	// Velocity rules earlier.
	ErrKnownInvalidBlock

	// ErrVelocityTxCount indicates the block carries fewer transactions
	// than the active tier requires.
	ErrVelocityTxCount

	// ErrVelocityFunds indicates the transactions of the block pay out more
	// than their inputs provide.
	ErrVelocityFunds

	// ErrVelocityValue indicates the aggregate output value of the block is
	// below the minimum of the active tier.
	ErrVelocityValue

	// ErrVelocityFee indicates the aggregate fee of the block is below the
	// minimum of the active tier.
	ErrVelocityFee

	// ErrVelocitySpacing indicates the block follows its parent more
	// rapidly than the active tier allows.
	ErrVelocitySpacing

	// ErrVelocityExplicit indicates the active tier is explicit and has
	// transaction minimums configured, which rejects every block.
	ErrVelocityExplicit

	// ErrBadTxOutValue indicates an output value of the block is negative
	// or exceeds the maximum allowed value, either by itself or summed with
	// the other outputs of the block.
	ErrBadTxOutValue

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrPreviousBlockUnknown: "ErrPreviousBlockUnknown",
	ErrKnownInvalidBlock:    "ErrKnownInvalidBlock",
	ErrVelocityTxCount:      "ErrVelocityTxCount",
	ErrVelocityFunds:        "ErrVelocityFunds",
	ErrVelocityValue:        "ErrVelocityValue",
	ErrVelocityFee:          "ErrVelocityFee",
	ErrVelocitySpacing:      "ErrVelocitySpacing",
	ErrVelocityExplicit:     "ErrVelocityExplicit",
	ErrBadTxOutValue:        "ErrBadTxOutValue",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a block failed due to one of the many validation
// rules.  The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and access the ErrorCode field to
// ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a rule error with
// the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var rerr RuleError
	return errors.As(err, &rerr) && rerr.ErrorCode == c
}
