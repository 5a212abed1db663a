// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api provides the JSON-RPC service of the AMM VM.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/indexer"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/state"
)

// nativeAlias names the native asset in requests.
const nativeAlias = "native"

var (
	ErrNotBootstrapped = errors.New("AMM not bootstrapped")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrIndexDisabled   = errors.New("position indexing is disabled")
)

// VM is what the service needs from the VM.
type VM interface {
	IsBootstrapped() bool
	IssueTx(txBytes []byte) (ids.ID, error)
	State() *state.State
	Positions() *indexer.Positions
	LastAccepted() (ids.ID, uint64)
}

type Service struct {
	vm VM
}

func NewService(vm VM) *Service {
	return &Service{vm: vm}
}

type PingArgs struct{}

type PingReply struct {
	Success bool `json:"success"`
}

func (*Service) Ping(_ *http.Request, _ *PingArgs, reply *PingReply) error {
	reply.Success = true
	return nil
}

type StatusArgs struct{}

type StatusReply struct {
	Bootstrapped   bool   `json:"bootstrapped"`
	LastAcceptedID ids.ID `json:"lastAcceptedID"`
	Height         uint64 `json:"height"`
}

func (s *Service) Status(_ *http.Request, _ *StatusArgs, reply *StatusReply) error {
	reply.Bootstrapped = s.vm.IsBootstrapped()
	reply.LastAcceptedID, reply.Height = s.vm.LastAccepted()
	return nil
}

type IssueTxArgs struct {
	Tx hexutil.Bytes `json:"tx"`
}

type IssueTxReply struct {
	TxID ids.ID `json:"txID"`
}

// IssueTx queues a serialized transaction for the next block.
func (s *Service) IssueTx(_ *http.Request, args *IssueTxArgs, reply *IssueTxReply) error {
	if !s.vm.IsBootstrapped() {
		return ErrNotBootstrapped
	}
	if len(args.Tx) == 0 {
		return fmt.Errorf("%w: tx required", ErrInvalidRequest)
	}
	txID, err := s.vm.IssueTx(args.Tx)
	if err != nil {
		return err
	}
	reply.TxID = txID
	return nil
}

type GetRegistryArgs struct{}

type GetRegistryReply struct {
	Address      ids.ShortID `json:"address"`
	Owner        ids.ShortID `json:"owner"`
	State        string      `json:"state"`
	PoolsCreated uint64      `json:"poolsCreated"`
}

func (s *Service) GetRegistry(_ *http.Request, _ *GetRegistryArgs, reply *GetRegistryReply) error {
	return s.vm.State().Read(func(d *state.Diff) error {
		rec, err := d.Registry.Record()
		if err != nil {
			return err
		}
		reply.Address = d.Registry.Address()
		reply.Owner = rec.Owner
		reply.State = rec.State.String()
		reply.PoolsCreated = rec.Nonce
		return nil
	})
}

type PoolEntry struct {
	Pool   ids.ShortID `json:"pool"`
	Kind   string      `json:"kind"`
	Active bool        `json:"active"`
}

type ListPoolsArgs struct {
	// ActiveOnly skips removed pools.
	ActiveOnly bool `json:"activeOnly"`
}

type ListPoolsReply struct {
	Pools []PoolEntry `json:"pools"`
}

func (s *Service) ListPools(_ *http.Request, args *ListPoolsArgs, reply *ListPoolsReply) error {
	return s.vm.State().Read(func(d *state.Diff) error {
		entries, err := d.Registry.Entries()
		if err != nil {
			return err
		}
		reply.Pools = make([]PoolEntry, 0, len(entries))
		for _, e := range entries {
			if args.ActiveOnly && !e.Active {
				continue
			}
			reply.Pools = append(reply.Pools, PoolEntry{
				Pool:   e.Pool,
				Kind:   e.Kind.String(),
				Active: e.Active,
			})
		}
		return nil
	})
}

type PoolArgs struct {
	Pool ids.ShortID `json:"pool"`
}

type GetPoolReply struct {
	Address     ids.ShortID `json:"address"`
	Kind        string      `json:"kind"`
	Owner       ids.ShortID `json:"owner"`
	AssetX      ids.ID      `json:"assetX"`
	AssetY      ids.ID      `json:"assetY"`
	FeePerMille uint16      `json:"feePerMille"`
	Initialized bool        `json:"initialized"`
	Active      bool        `json:"active"`
	ReserveX    string      `json:"reserveX"`
	ReserveY    string      `json:"reserveY"`
	TotalShares string      `json:"totalShares"`
	FeesX       string      `json:"feesX"`
	FeesY       string      `json:"feesY"`
	VolumeX     string      `json:"volumeX"`
	VolumeY     string      `json:"volumeY"`
	TxCount     uint64      `json:"txCount"`
}

func (s *Service) GetPool(_ *http.Request, args *PoolArgs, reply *GetPoolReply) error {
	return s.vm.State().Read(func(d *state.Diff) error {
		pool, err := d.Pools.Get(args.Pool)
		if err != nil {
			return err
		}
		active, err := d.Registry.Status(args.Pool)
		if err != nil {
			return err
		}

		rec := pool.Record()
		*reply = GetPoolReply{
			Address:     rec.Address,
			Kind:        rec.Kind.String(),
			Owner:       rec.Owner,
			AssetX:      rec.AssetX,
			AssetY:      rec.AssetY,
			FeePerMille: rec.FeePerMille,
			Initialized: rec.Initialized,
			Active:      active,
			ReserveX:    rec.ReserveX.Dec(),
			ReserveY:    rec.ReserveY.Dec(),
			TotalShares: rec.TotalShares.Dec(),
			FeesX:       rec.FeesX.Dec(),
			FeesY:       rec.FeesY.Dec(),
			VolumeX:     rec.VolumeX.Dec(),
			VolumeY:     rec.VolumeY.Dec(),
			TxCount:     rec.TxCount,
		}
		return nil
	})
}

type QuoteArgs struct {
	Pool      ids.ShortID `json:"pool"`
	AmountIn  string      `json:"amountIn"`
	Direction string      `json:"direction"`
}

type QuoteReply struct {
	AmountOut string `json:"amountOut"`
}

// Quote returns what a swap would currently pay out.
func (s *Service) Quote(_ *http.Request, args *QuoteArgs, reply *QuoteReply) error {
	amountIn, err := parseAmount(args.AmountIn)
	if err != nil {
		return err
	}
	direction, err := parseDirection(args.Direction)
	if err != nil {
		return err
	}
	return s.vm.State().Read(func(d *state.Diff) error {
		pool, err := d.Pools.Get(args.Pool)
		if err != nil {
			return err
		}
		out, err := pool.Quote(amountIn, direction)
		if err != nil {
			return err
		}
		reply.AmountOut = out.Dec()
		return nil
	})
}

type GetLiquidityOfArgs struct {
	Pool     ids.ShortID `json:"pool"`
	Provider ids.ShortID `json:"provider"`
}

type GetLiquidityOfReply struct {
	Liquidity   string `json:"liquidity"`
	TotalShares string `json:"totalShares"`
}

func (s *Service) GetLiquidityOf(_ *http.Request, args *GetLiquidityOfArgs, reply *GetLiquidityOfReply) error {
	return s.vm.State().Read(func(d *state.Diff) error {
		pool, err := d.Pools.Get(args.Pool)
		if err != nil {
			return err
		}
		shares, err := pool.LiquidityOf(args.Provider)
		if err != nil {
			return err
		}
		reply.Liquidity = shares.Dec()
		reply.TotalShares = pool.TotalShares().Dec()
		return nil
	})
}

type GetAllowanceArgs struct {
	Pool    ids.ShortID `json:"pool"`
	Owner   ids.ShortID `json:"owner"`
	Spender ids.ShortID `json:"spender"`
}

type GetAllowanceReply struct {
	Exists    bool   `json:"exists"`
	Remaining string `json:"remaining"`
	Direction string `json:"direction,omitempty"`
}

func (s *Service) GetAllowance(_ *http.Request, args *GetAllowanceArgs, reply *GetAllowanceReply) error {
	return s.vm.State().Read(func(d *state.Diff) error {
		pool, err := d.Pools.Get(args.Pool)
		if err != nil {
			return err
		}
		a, ok, err := pool.AllowanceOf(args.Owner, args.Spender)
		if err != nil {
			return err
		}
		reply.Exists = ok
		reply.Remaining = a.Remaining.Dec()
		if ok {
			reply.Direction = a.Direction.String()
		}
		return nil
	})
}

type GetBalanceArgs struct {
	// Asset is an asset ID or "native".
	Asset   string      `json:"asset"`
	Address ids.ShortID `json:"address"`
}

type GetBalanceReply struct {
	Asset   ids.ID `json:"asset"`
	Balance string `json:"balance"`
}

func (s *Service) GetBalance(_ *http.Request, args *GetBalanceArgs, reply *GetBalanceReply) error {
	st := s.vm.State()
	asset := st.NativeAssetID()
	if args.Asset != nativeAlias {
		var err error
		asset, err = ids.FromString(args.Asset)
		if err != nil {
			return fmt.Errorf("%w: asset %q: %w", ErrInvalidRequest, args.Asset, err)
		}
	}
	return st.Read(func(d *state.Diff) error {
		balance, err := d.Assets.BalanceOf(asset, args.Address)
		if err != nil {
			return err
		}
		reply.Asset = asset
		reply.Balance = balance.Dec()
		return nil
	})
}

type GetPositionsArgs struct {
	Provider ids.ShortID `json:"provider"`
}

type GetPositionsReply struct {
	Positions []PositionReply `json:"positions"`
}

type PositionReply struct {
	Pool       ids.ShortID `json:"pool"`
	Liquidity  string      `json:"liquidity"`
	DepositX   string      `json:"depositX"`
	DepositY   string      `json:"depositY"`
	WithdrawnX string      `json:"withdrawnX"`
	WithdrawnY string      `json:"withdrawnY"`
	Closed     bool        `json:"closed"`
}

// GetPositions returns the indexed liquidity positions of a provider.
func (s *Service) GetPositions(_ *http.Request, args *GetPositionsArgs, reply *GetPositionsReply) error {
	positions := s.vm.Positions()
	if positions == nil {
		return ErrIndexDisabled
	}
	found := positions.ByProvider(args.Provider)
	reply.Positions = make([]PositionReply, len(found))
	for i, p := range found {
		reply.Positions[i] = PositionReply{
			Pool:       p.Pool,
			Liquidity:  p.Liquidity.Dec(),
			DepositX:   p.DepositX.Dec(),
			DepositY:   p.DepositY.Dec(),
			WithdrawnX: p.WithdrawnX.Dec(),
			WithdrawnY: p.WithdrawnY.Dec(),
			Closed:     p.Closed,
		}
	}
	return nil
}

func parseAmount(s string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %w", ErrInvalidRequest, s, err)
	}
	return amount, nil
}

func parseDirection(s string) (liquidity.Direction, error) {
	for _, d := range []liquidity.Direction{liquidity.XToY, liquidity.YToX} {
		if s == d.String() {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: direction %q", ErrInvalidRequest, s)
}
