// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
)

var (
	_ events.Event = (*StateUpdated)(nil)
	_ events.Event = (*LiquidityPoolAdded)(nil)
	_ events.Event = (*LiquidityPoolActivated)(nil)
	_ events.Event = (*LiquidityPoolRemoved)(nil)
	_ events.Event = (*OwnershipTransferred)(nil)
)

type StateUpdated struct {
	Registry ids.ShortID
	State    State
}

func (e *StateUpdated) Emitter() ids.ShortID { return e.Registry }
func (*StateUpdated) Name() string { return "StateUpdated" }

// LiquidityPoolAdded announces a new pool. Its kind tells consumers which
// event schema the pool emits.
type LiquidityPoolAdded struct {
	Registry ids.ShortID
	Pool     ids.ShortID
	Kind     liquidity.Kind
}

func (e *LiquidityPoolAdded) Emitter() ids.ShortID { return e.Registry }
func (*LiquidityPoolAdded) Name() string { return "LiquidityPoolAdded" }

type LiquidityPoolActivated struct {
	Registry ids.ShortID
	Pool     ids.ShortID
}

func (e *LiquidityPoolActivated) Emitter() ids.ShortID { return e.Registry }
func (*LiquidityPoolActivated) Name() string { return "LiquidityPoolActivated" }

type LiquidityPoolRemoved struct {
	Registry ids.ShortID
	Pool     ids.ShortID
}

func (e *LiquidityPoolRemoved) Emitter() ids.ShortID { return e.Registry }
func (*LiquidityPoolRemoved) Name() string { return "LiquidityPoolRemoved" }

type OwnershipTransferred struct {
	Registry      ids.ShortID
	PreviousOwner ids.ShortID
	NewOwner      ids.ShortID
}

func (e *OwnershipTransferred) Emitter() ids.ShortID { return e.Registry }
func (*OwnershipTransferred) Name() string { return "OwnershipTransferred" }
