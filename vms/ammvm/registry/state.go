// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/liquidity"
)

// State is the registry's lifecycle. Closed freezes the catalog; Open is
// required for routed swaps.
type State uint8

const (
	Closed State = iota
	Paused
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Paused:
		return "paused"
	case Open:
		return "open"
	default:
		return "unknown"
	}
}

func (s State) Valid() bool {
	return s <= Open
}

// Record is the persisted state of the registry.
type Record struct {
	Owner ids.ShortID `serialize:"true"`
	State State       `serialize:"true"`
	// Nonce is the number of pools created so far. It seeds pool addresses.
	Nonce uint64 `serialize:"true"`
}

// Entry is the catalog record of one pool.
type Entry struct {
	Pool   ids.ShortID    `serialize:"true"`
	Kind   liquidity.Kind `serialize:"true"`
	Active bool           `serialize:"true"`
}

// Ledger is the asset ledger the registry collects deposits through.
type Ledger interface {
	liquidity.Ledger
	Approve(asset ids.ID, owner, spender ids.ShortID, amount *uint256.Int) error
}
