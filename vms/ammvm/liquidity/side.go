// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/assets"
)

var (
	_ side = nativeSide{}
	_ side = tokenSide{}
)

// side is how a pool physically moves one of its two assets. It is the only
// behaviour that differs between pool kinds.
type side interface {
	asset() ids.ID
	native() bool
	// pull moves amount into the pool. Native value is always paid by the
	// caller. Tokens are drawn from `from` with the pool as spender.
	pull(l Ledger, pool ids.ShortID, call assets.Call, from ids.ShortID, amount *uint256.Int) error
	push(l Ledger, pool, to ids.ShortID, amount *uint256.Int) error
}

type nativeSide struct {
	id ids.ID
}

func (s nativeSide) asset() ids.ID { return s.id }

func (nativeSide) native() bool { return true }

func (s nativeSide) pull(l Ledger, pool ids.ShortID, call assets.Call, _ ids.ShortID, amount *uint256.Int) error {
	return l.Transfer(s.id, call.Caller, pool, amount)
}

func (s nativeSide) push(l Ledger, pool, to ids.ShortID, amount *uint256.Int) error {
	return l.Transfer(s.id, pool, to, amount)
}

type tokenSide struct {
	id ids.ID
}

func (s tokenSide) asset() ids.ID { return s.id }

func (tokenSide) native() bool { return false }

func (s tokenSide) pull(l Ledger, pool ids.ShortID, _ assets.Call, from ids.ShortID, amount *uint256.Int) error {
	return l.TransferFrom(s.id, pool, from, pool, amount)
}

func (s tokenSide) push(l Ledger, pool, to ids.ShortID, amount *uint256.Int) error {
	return l.Transfer(s.id, pool, to, amount)
}
