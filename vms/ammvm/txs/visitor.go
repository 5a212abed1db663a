// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

// Visitor executes custom logic against the concrete transaction types.
type Visitor interface {
	// Registry
	SetStateTx(*SetStateTx) error
	TransferOwnershipTx(*TransferOwnershipTx) error
	AddNativePoolTx(*AddNativePoolTx) error
	AddTokenPoolTx(*AddTokenPoolTx) error
	RemovePoolTx(*RemovePoolTx) error
	ActivatePoolTx(*ActivatePoolTx) error
	SwapAtTx(*SwapAtTx) error

	// Pools
	ProvideLiquidityTx(*ProvideLiquidityTx) error
	WithdrawLiquidityTx(*WithdrawLiquidityTx) error
	SwapTx(*SwapTx) error
	ApproveTx(*ApproveTx) error
	SwapFromTx(*SwapFromTx) error

	// Asset ledger
	TransferTx(*TransferTx) error
	ApproveAssetTx(*ApproveAssetTx) error
}
