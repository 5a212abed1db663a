// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
)

// Record is the persisted state of a pool.
type Record struct {
	Address     ids.ShortID `serialize:"true"`
	Kind        Kind        `serialize:"true"`
	Owner       ids.ShortID `serialize:"true"`
	AssetX      ids.ID      `serialize:"true"`
	AssetY      ids.ID      `serialize:"true"`
	FeePerMille uint16      `serialize:"true"`
	Initialized bool        `serialize:"true"`

	ReserveX    uint256.Int `serialize:"true"`
	ReserveY    uint256.Int `serialize:"true"`
	TotalShares uint256.Int `serialize:"true"`

	// Statistics
	FeesX   uint256.Int `serialize:"true"` // Input retained as fee on X→Y swaps
	FeesY   uint256.Int `serialize:"true"` // Input retained as fee on Y→X swaps
	VolumeX uint256.Int `serialize:"true"` // Cumulative gross X input
	VolumeY uint256.Int `serialize:"true"` // Cumulative gross Y input
	TxCount uint64      `serialize:"true"`
}

// Allowance is a capped, directional permission for a spender to trigger
// swaps on behalf of an owner.
type Allowance struct {
	Remaining uint256.Int `serialize:"true"`
	Direction Direction   `serialize:"true"`
}
