// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/events"
)

var (
	_ events.Event = (*LiquidityAdded)(nil)
	_ events.Event = (*LiquidityRemoved)(nil)
	_ events.Event = (*Swapped)(nil)
	_ events.Event = (*Approval)(nil)
)

// LiquidityAdded is emitted when shares are minted, including on initialize.
type LiquidityAdded struct {
	Pool      ids.ShortID
	Provider  ids.ShortID
	Liquidity *uint256.Int
	DepositX  *uint256.Int
	DepositY  *uint256.Int
}

func (e *LiquidityAdded) Emitter() ids.ShortID { return e.Pool }
func (*LiquidityAdded) Name() string { return "LiquidityAdded" }

// LiquidityRemoved is emitted when shares are burned.
type LiquidityRemoved struct {
	Pool       ids.ShortID
	Provider   ids.ShortID
	Liquidity  *uint256.Int
	WithdrawnX *uint256.Int
	WithdrawnY *uint256.Int
}

func (e *LiquidityRemoved) Emitter() ids.ShortID { return e.Pool }
func (*LiquidityRemoved) Name() string { return "LiquidityRemoved" }

// Swapped is emitted for every swap. Caller is the account whose funds were
// exchanged, which for delegated swaps is the owner rather than the spender.
type Swapped struct {
	Pool      ids.ShortID
	Caller    ids.ShortID
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
	Direction Direction
}

func (e *Swapped) Emitter() ids.ShortID { return e.Pool }
func (*Swapped) Name() string { return "Swap" }

// Approval is emitted when an allowance is written.
type Approval struct {
	Pool      ids.ShortID
	Owner     ids.ShortID
	Spender   ids.ShortID
	Amount    *uint256.Int
	Direction Direction
}

func (e *Approval) Emitter() ids.ShortID { return e.Pool }
func (*Approval) Name() string { return "Approval" }
