// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/registry"
	"github.com/luxfi/amm/vms/ammvm/reserve"
)

var (
	_ UnsignedTx = (*SetStateTx)(nil)
	_ UnsignedTx = (*TransferOwnershipTx)(nil)
	_ UnsignedTx = (*AddNativePoolTx)(nil)
	_ UnsignedTx = (*AddTokenPoolTx)(nil)
	_ UnsignedTx = (*RemovePoolTx)(nil)
	_ UnsignedTx = (*ActivatePoolTx)(nil)
	_ UnsignedTx = (*SwapAtTx)(nil)
)

// SetStateTx moves the registry to a new lifecycle state.
type SetStateTx struct {
	State registry.State `serialize:"true" json:"state"`
}

func (tx *SetStateTx) SyntacticVerify() error {
	if !tx.State.Valid() {
		return fmt.Errorf("%w: %d", registry.ErrInvalidState, tx.State)
	}
	return nil
}

func (tx *SetStateTx) Visit(visitor Visitor) error {
	return visitor.SetStateTx(tx)
}

// TransferOwnershipTx hands the registry to a new owner.
type TransferOwnershipTx struct {
	NewOwner ids.ShortID `serialize:"true" json:"newOwner"`
}

func (*TransferOwnershipTx) SyntacticVerify() error {
	return nil
}

func (tx *TransferOwnershipTx) Visit(visitor Visitor) error {
	return visitor.TransferOwnershipTx(tx)
}

// AddNativePoolTx creates a pool pairing the native asset with Token. The
// native deposit is the transaction's attached value.
type AddNativePoolTx struct {
	Token        ids.ID      `serialize:"true" json:"token"`
	FeePerMille  uint16      `serialize:"true" json:"feePerMille"`
	TokenDeposit uint256.Int `serialize:"true" json:"tokenDeposit"`
}

func (tx *AddNativePoolTx) SyntacticVerify() error {
	return verifyFee(tx.FeePerMille)
}

func (tx *AddNativePoolTx) Visit(visitor Visitor) error {
	return visitor.AddNativePoolTx(tx)
}

// AddTokenPoolTx creates a pool pairing two tokens.
type AddTokenPoolTx struct {
	AssetX      ids.ID      `serialize:"true" json:"assetX"`
	AssetY      ids.ID      `serialize:"true" json:"assetY"`
	FeePerMille uint16      `serialize:"true" json:"feePerMille"`
	DepositX    uint256.Int `serialize:"true" json:"depositX"`
	DepositY    uint256.Int `serialize:"true" json:"depositY"`
}

func (tx *AddTokenPoolTx) SyntacticVerify() error {
	return verifyFee(tx.FeePerMille)
}

func (tx *AddTokenPoolTx) Visit(visitor Visitor) error {
	return visitor.AddTokenPoolTx(tx)
}

// RemovePoolTx takes a pool off the routable list.
type RemovePoolTx struct {
	Pool ids.ShortID `serialize:"true" json:"pool"`
}

func (*RemovePoolTx) SyntacticVerify() error {
	return nil
}

func (tx *RemovePoolTx) Visit(visitor Visitor) error {
	return visitor.RemovePoolTx(tx)
}

// ActivatePoolTx puts a removed pool back on the routable list.
type ActivatePoolTx struct {
	Pool ids.ShortID `serialize:"true" json:"pool"`
}

func (*ActivatePoolTx) SyntacticVerify() error {
	return nil
}

func (tx *ActivatePoolTx) Visit(visitor Visitor) error {
	return visitor.ActivatePoolTx(tx)
}

// SwapAtTx routes a delegated swap of the sender's funds through the
// registry.
type SwapAtTx struct {
	Pool   ids.ShortID `serialize:"true" json:"pool"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (*SwapAtTx) SyntacticVerify() error {
	return nil
}

func (tx *SwapAtTx) Visit(visitor Visitor) error {
	return visitor.SwapAtTx(tx)
}

func verifyFee(feePerMille uint16) error {
	if err := reserve.ValidateFee(feePerMille); err != nil {
		return fmt.Errorf("%w: %d", liquidity.ErrInvalidFee, feePerMille)
	}
	return nil
}
