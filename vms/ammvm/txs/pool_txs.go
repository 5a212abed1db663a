// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/liquidity"
)

var (
	_ UnsignedTx = (*ProvideLiquidityTx)(nil)
	_ UnsignedTx = (*WithdrawLiquidityTx)(nil)
	_ UnsignedTx = (*SwapTx)(nil)
	_ UnsignedTx = (*ApproveTx)(nil)
	_ UnsignedTx = (*SwapFromTx)(nil)
)

// ProvideLiquidityTx deposits into a pool at its current ratio. Native pools
// take the X amount from the attached value.
type ProvideLiquidityTx struct {
	Pool    ids.ShortID `serialize:"true" json:"pool"`
	AmountX uint256.Int `serialize:"true" json:"amountX"`
}

func (*ProvideLiquidityTx) SyntacticVerify() error {
	return nil
}

func (tx *ProvideLiquidityTx) Visit(visitor Visitor) error {
	return visitor.ProvideLiquidityTx(tx)
}

// WithdrawLiquidityTx burns shares for their portion of the reserves.
type WithdrawLiquidityTx struct {
	Pool   ids.ShortID `serialize:"true" json:"pool"`
	Shares uint256.Int `serialize:"true" json:"shares"`
}

func (*WithdrawLiquidityTx) SyntacticVerify() error {
	return nil
}

func (tx *WithdrawLiquidityTx) Visit(visitor Visitor) error {
	return visitor.WithdrawLiquidityTx(tx)
}

type SwapTx struct {
	Pool      ids.ShortID         `serialize:"true" json:"pool"`
	AmountIn  uint256.Int         `serialize:"true" json:"amountIn"`
	Direction liquidity.Direction `serialize:"true" json:"direction"`
}

func (tx *SwapTx) SyntacticVerify() error {
	return verifyDirection(tx.Direction)
}

func (tx *SwapTx) Visit(visitor Visitor) error {
	return visitor.SwapTx(tx)
}

// ApproveTx overwrites the sender's allowance for Spender on Pool.
type ApproveTx struct {
	Pool      ids.ShortID         `serialize:"true" json:"pool"`
	Spender   ids.ShortID         `serialize:"true" json:"spender"`
	Amount    uint256.Int         `serialize:"true" json:"amount"`
	Direction liquidity.Direction `serialize:"true" json:"direction"`
}

func (tx *ApproveTx) SyntacticVerify() error {
	return verifyDirection(tx.Direction)
}

func (tx *ApproveTx) Visit(visitor Visitor) error {
	return visitor.ApproveTx(tx)
}

// SwapFromTx swaps Owner's funds on the authority of the sender's allowance.
type SwapFromTx struct {
	Pool     ids.ShortID `serialize:"true" json:"pool"`
	Owner    ids.ShortID `serialize:"true" json:"owner"`
	AmountIn uint256.Int `serialize:"true" json:"amountIn"`
}

func (*SwapFromTx) SyntacticVerify() error {
	return nil
}

func (tx *SwapFromTx) Visit(visitor Visitor) error {
	return visitor.SwapFromTx(tx)
}

func verifyDirection(direction liquidity.Direction) error {
	if !direction.Valid() {
		return fmt.Errorf("%w: %s", liquidity.ErrInvalidDirection, direction)
	}
	return nil
}
