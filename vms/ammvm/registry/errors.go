// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"errors"
	"fmt"

	"github.com/luxfi/amm/vms/ammvm/guard"
)

var (
	ErrStateIs                = guard.Access("registry state is")
	ErrStateIsNot             = guard.Access("registry state is not")
	ErrLiquidityPoolNotActive = guard.Access("liquidity pool not active")
	ErrLiquidityPoolIsActive  = guard.Access("liquidity pool is active")

	// ErrUnknownLiquidityPool is what activating an unregistered address fails
	// with. It is an ErrLiquidityPoolIsActive.
	ErrUnknownLiquidityPool = fmt.Errorf("%w: unknown liquidity pool", ErrLiquidityPoolIsActive)

	ErrInvalidState = guard.Invariant("invalid registry state")

	ErrNotCreated     = errors.New("registry not created")
	ErrAlreadyCreated = errors.New("registry already created")
)
