// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import (
	"errors"

	"github.com/luxfi/amm/vms/ammvm/guard"
)

var (
	ErrNotAboveZero       = guard.Invariant("not above zero")
	ErrAlreadyInitialized = guard.Invariant("already initialized")
	ErrNotInitialized     = guard.Invariant("not initialized")
	ErrNativeNotAccepted  = guard.Invariant("native value not accepted")
	ErrInvalidFee         = guard.Invariant("invalid fee")
	ErrSameAsset          = guard.Invariant("same asset on both sides")
	ErrInvalidKind        = guard.Invariant("invalid pool kind")
	ErrInvalidDirection   = guard.Invariant("invalid direction")
	ErrOverflow           = guard.Invariant("amount overflow")

	ErrNotEnoughLiquidity = guard.Resource("not enough liquidity")
	ErrNotEnoughAllowance = guard.Resource("not enough allowance")
	ErrTransferFailed     = guard.Resource("transfer failed")

	ErrReentrantCall = guard.Access("reentrant call")

	ErrUnknownPool = errors.New("unknown pool")
	ErrPoolExists  = errors.New("pool already exists")
)
