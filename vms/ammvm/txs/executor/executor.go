// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"

	"github.com/luxfi/amm/vms/ammvm/assets"
	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/state"
	"github.com/luxfi/amm/vms/ammvm/txs"
)

var (
	_ txs.Visitor = (*Executor)(nil)

	ErrValueNotAccepted = errors.New("transaction does not accept native value")
)

// Executor applies a transaction to a state diff.
type Executor struct {
	Diff *state.Diff
	Tx   *txs.Tx
}

// Execute verifies tx and applies it to s atomically, returning the events
// it emitted.
func Execute(s *state.State, tx *txs.Tx) ([]events.Event, error) {
	if err := tx.SyntacticVerify(); err != nil {
		return nil, err
	}
	return s.Atomic(func(d *state.Diff) error {
		return tx.Unsigned.Visit(&Executor{
			Diff: d,
			Tx:   tx,
		})
	})
}

func (e *Executor) call() assets.Call {
	return assets.Call{
		Caller: e.Tx.Sender,
		Value:  e.Tx.AttachedValue(),
	}
}

func (e *Executor) SetStateTx(tx *txs.SetStateTx) error {
	_, err := e.Diff.Registry.SetState(e.call(), tx.State)
	return err
}

func (e *Executor) TransferOwnershipTx(tx *txs.TransferOwnershipTx) error {
	_, err := e.Diff.Registry.TransferOwnership(e.call(), tx.NewOwner)
	return err
}

func (e *Executor) AddNativePoolTx(tx *txs.AddNativePoolTx) error {
	_, err := e.Diff.Registry.AddNativeLiquidityPool(e.call(), tx.Token, tx.FeePerMille, &tx.TokenDeposit)
	return err
}

func (e *Executor) AddTokenPoolTx(tx *txs.AddTokenPoolTx) error {
	_, err := e.Diff.Registry.AddTokenLiquidityPool(
		e.call(),
		tx.AssetX,
		tx.AssetY,
		tx.FeePerMille,
		&tx.DepositX,
		&tx.DepositY,
	)
	return err
}

func (e *Executor) RemovePoolTx(tx *txs.RemovePoolTx) error {
	_, err := e.Diff.Registry.RemoveLiquidityPool(e.call(), tx.Pool)
	return err
}

func (e *Executor) ActivatePoolTx(tx *txs.ActivatePoolTx) error {
	_, err := e.Diff.Registry.ActivateLiquidityPool(e.call(), tx.Pool)
	return err
}

func (e *Executor) SwapAtTx(tx *txs.SwapAtTx) error {
	_, err := e.Diff.Registry.SwapAt(e.call(), tx.Pool, &tx.Amount)
	return err
}

func (e *Executor) ProvideLiquidityTx(tx *txs.ProvideLiquidityTx) error {
	pool, err := e.Diff.Pools.Get(tx.Pool)
	if err != nil {
		return err
	}
	_, err = pool.ProvideLiquidity(e.call(), &tx.AmountX)
	return err
}

func (e *Executor) WithdrawLiquidityTx(tx *txs.WithdrawLiquidityTx) error {
	pool, err := e.Diff.Pools.Get(tx.Pool)
	if err != nil {
		return err
	}
	_, err = pool.WithdrawLiquidity(e.call(), &tx.Shares)
	return err
}

func (e *Executor) SwapTx(tx *txs.SwapTx) error {
	pool, err := e.Diff.Pools.Get(tx.Pool)
	if err != nil {
		return err
	}
	_, err = pool.Swap(e.call(), &tx.AmountIn, tx.Direction)
	return err
}

func (e *Executor) ApproveTx(tx *txs.ApproveTx) error {
	pool, err := e.Diff.Pools.Get(tx.Pool)
	if err != nil {
		return err
	}
	_, err = pool.Approve(e.call(), tx.Spender, &tx.Amount, tx.Direction)
	return err
}

func (e *Executor) SwapFromTx(tx *txs.SwapFromTx) error {
	pool, err := e.Diff.Pools.Get(tx.Pool)
	if err != nil {
		return err
	}
	_, err = pool.SwapFrom(e.call(), tx.Owner, &tx.AmountIn)
	return err
}

func (e *Executor) TransferTx(tx *txs.TransferTx) error {
	if err := e.rejectValue(); err != nil {
		return err
	}
	return e.Diff.Assets.Transfer(tx.Asset, e.Tx.Sender, tx.To, &tx.Amount)
}

func (e *Executor) ApproveAssetTx(tx *txs.ApproveAssetTx) error {
	if err := e.rejectValue(); err != nil {
		return err
	}
	return e.Diff.Assets.Approve(tx.Asset, e.Tx.Sender, tx.Spender, &tx.Amount)
}

func (e *Executor) rejectValue() error {
	if e.Tx.AttachedValue() != nil {
		return fmt.Errorf("%w: %s", ErrValueNotAccepted, e.Tx.Value.Dec())
	}
	return nil
}
