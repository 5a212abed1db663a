// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package guard holds the error classes shared by every AMM component and the
// single caller check used to gate owner-only operations.
package guard

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"
)

var (
	// ErrInvariantViolation classifies structurally invalid requests. They are
	// always rejected before any state is touched.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInsufficientResource classifies requests for more shares, allowance
	// or external balance than is available.
	ErrInsufficientResource = errors.New("insufficient resource")
	// ErrAccessDenied classifies requests the caller or the current lifecycle
	// state does not permit.
	ErrAccessDenied = errors.New("access denied")

	ErrCallerNotOwner = fmt.Errorf("%w: caller is not the owner", ErrAccessDenied)
)

// Invariant returns a new error of the invariant violation class.
func Invariant(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, msg)
}

// Resource returns a new error of the insufficient resource class.
func Resource(msg string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientResource, msg)
}

// Access returns a new error of the access denied class.
func Access(msg string) error {
	return fmt.Errorf("%w: %s", ErrAccessDenied, msg)
}

// RequireCaller returns ErrCallerNotOwner unless caller is the expected
// address.
func RequireCaller(caller, expected ids.ShortID) error {
	if caller != expected {
		return fmt.Errorf("%w: %s", ErrCallerNotOwner, caller)
	}
	return nil
}
