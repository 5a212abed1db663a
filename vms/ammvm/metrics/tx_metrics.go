// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import "github.com/luxfi/amm/vms/ammvm/txs"

const (
	txLabel = "tx"

	unknownTx = "unknown"
)

var _ txs.Visitor = (*txLabeler)(nil)

// TxLabel returns the metric label of tx's operation.
func TxLabel(tx *txs.Tx) string {
	if tx == nil || tx.Unsigned == nil {
		return unknownTx
	}
	l := &txLabeler{}
	if err := tx.Unsigned.Visit(l); err != nil {
		return unknownTx
	}
	return l.label
}

type txLabeler struct {
	label string
}

func (l *txLabeler) SetStateTx(*txs.SetStateTx) error {
	l.label = "set_state"
	return nil
}

func (l *txLabeler) TransferOwnershipTx(*txs.TransferOwnershipTx) error {
	l.label = "transfer_ownership"
	return nil
}

func (l *txLabeler) AddNativePoolTx(*txs.AddNativePoolTx) error {
	l.label = "add_native_pool"
	return nil
}

func (l *txLabeler) AddTokenPoolTx(*txs.AddTokenPoolTx) error {
	l.label = "add_token_pool"
	return nil
}

func (l *txLabeler) RemovePoolTx(*txs.RemovePoolTx) error {
	l.label = "remove_pool"
	return nil
}

func (l *txLabeler) ActivatePoolTx(*txs.ActivatePoolTx) error {
	l.label = "activate_pool"
	return nil
}

func (l *txLabeler) SwapAtTx(*txs.SwapAtTx) error {
	l.label = "swap_at"
	return nil
}

func (l *txLabeler) ProvideLiquidityTx(*txs.ProvideLiquidityTx) error {
	l.label = "provide_liquidity"
	return nil
}

func (l *txLabeler) WithdrawLiquidityTx(*txs.WithdrawLiquidityTx) error {
	l.label = "withdraw_liquidity"
	return nil
}

func (l *txLabeler) SwapTx(*txs.SwapTx) error {
	l.label = "swap"
	return nil
}

func (l *txLabeler) ApproveTx(*txs.ApproveTx) error {
	l.label = "approve"
	return nil
}

func (l *txLabeler) SwapFromTx(*txs.SwapFromTx) error {
	l.label = "swap_from"
	return nil
}

func (l *txLabeler) TransferTx(*txs.TransferTx) error {
	l.label = "transfer"
	return nil
}

func (l *txLabeler) ApproveAssetTx(*txs.ApproveAssetTx) error {
	l.label = "approve_asset"
	return nil
}
