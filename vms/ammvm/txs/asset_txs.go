// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
)

var (
	_ UnsignedTx = (*TransferTx)(nil)
	_ UnsignedTx = (*ApproveAssetTx)(nil)
)

// TransferTx moves an asset between accounts.
type TransferTx struct {
	Asset  ids.ID      `serialize:"true" json:"asset"`
	To     ids.ShortID `serialize:"true" json:"to"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (*TransferTx) SyntacticVerify() error {
	return nil
}

func (tx *TransferTx) Visit(visitor Visitor) error {
	return visitor.TransferTx(tx)
}

// ApproveAssetTx lets Spender move up to Amount of the sender's Asset.
type ApproveAssetTx struct {
	Asset   ids.ID      `serialize:"true" json:"asset"`
	Spender ids.ShortID `serialize:"true" json:"spender"`
	Amount  uint256.Int `serialize:"true" json:"amount"`
}

func (*ApproveAssetTx) SyntacticVerify() error {
	return nil
}

func (tx *ApproveAssetTx) Visit(visitor Visitor) error {
	return visitor.ApproveAssetTx(tx)
}
