// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ammvm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/amm/vms/ammvm/assets"
	"github.com/luxfi/amm/vms/ammvm/registry"
	"github.com/luxfi/amm/vms/ammvm/state"
)

// nativeAlias names the native asset in allocations and pools.
const nativeAlias = "native"

var (
	errMissingNativeAsset   = errors.New("genesis has no native asset")
	errMissingRegistry      = errors.New("genesis has no registry address")
	errMissingOwner         = errors.New("genesis has no registry owner")
	errUnknownRegistryState = errors.New("unknown registry state")
)

// Genesis is the initial state of the chain.
type Genesis struct {
	NativeAsset ids.ID
	Registry    ids.ShortID
	Owner       ids.ShortID
	State       registry.State
	Allocations []Allocation
	Pools       []GenesisPool
}

// Allocation mints Amount of Asset to Address.
type Allocation struct {
	Address ids.ShortID
	Asset   ids.ID
	Amount  *uint256.Int
}

// GenesisPool is a pool the owner adds through the registry at genesis. A
// pool whose AssetX is the native asset is a native pool.
type GenesisPool struct {
	AssetX      ids.ID
	AssetY      ids.ID
	FeePerMille uint16
	DepositX    *uint256.Int
	DepositY    *uint256.Int
}

type genesisFile struct {
	NativeAsset string           `json:"nativeAsset" yaml:"nativeAsset"`
	Registry    string           `json:"registry" yaml:"registry"`
	Owner       string           `json:"owner" yaml:"owner"`
	State       string           `json:"state" yaml:"state"`
	Allocations []allocationFile `json:"allocations" yaml:"allocations"`
	Pools       []poolFile       `json:"pools" yaml:"pools"`
}

type allocationFile struct {
	Address string `json:"address" yaml:"address"`
	Asset   string `json:"asset" yaml:"asset"`
	Amount  string `json:"amount" yaml:"amount"`
}

type poolFile struct {
	AssetX      string `json:"assetX" yaml:"assetX"`
	AssetY      string `json:"assetY" yaml:"assetY"`
	FeePerMille uint16 `json:"feePerMille" yaml:"feePerMille"`
	DepositX    string `json:"depositX" yaml:"depositX"`
	DepositY    string `json:"depositY" yaml:"depositY"`
}

// ParseGenesis reads a genesis document in JSON or YAML. Addresses and asset
// IDs are in their string encoding and amounts are decimal strings. The asset
// "native" refers to the native asset.
func ParseGenesis(b []byte) (*Genesis, error) {
	var f genesisFile
	if json.Valid(b) {
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	if f.NativeAsset == "" {
		return nil, errMissingNativeAsset
	}
	if f.Registry == "" {
		return nil, errMissingRegistry
	}
	if f.Owner == "" {
		return nil, errMissingOwner
	}

	g := &Genesis{}
	var err error
	if g.NativeAsset, err = ids.FromString(f.NativeAsset); err != nil {
		return nil, fmt.Errorf("invalid native asset: %w", err)
	}
	if g.Registry, err = ids.ShortFromString(f.Registry); err != nil {
		return nil, fmt.Errorf("invalid registry address: %w", err)
	}
	if g.Owner, err = ids.ShortFromString(f.Owner); err != nil {
		return nil, fmt.Errorf("invalid owner: %w", err)
	}
	if g.State, err = parseState(f.State); err != nil {
		return nil, err
	}

	for i, a := range f.Allocations {
		alloc := Allocation{}
		if alloc.Address, err = ids.ShortFromString(a.Address); err != nil {
			return nil, fmt.Errorf("allocation %d: invalid address: %w", i, err)
		}
		if alloc.Asset, err = g.asset(a.Asset); err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i, err)
		}
		if alloc.Amount, err = uint256.FromDecimal(a.Amount); err != nil {
			return nil, fmt.Errorf("allocation %d: invalid amount %q: %w", i, a.Amount, err)
		}
		g.Allocations = append(g.Allocations, alloc)
	}

	for i, p := range f.Pools {
		pool := GenesisPool{FeePerMille: p.FeePerMille}
		if pool.AssetX, err = g.asset(p.AssetX); err != nil {
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		if pool.AssetY, err = g.asset(p.AssetY); err != nil {
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		if pool.DepositX, err = uint256.FromDecimal(p.DepositX); err != nil {
			return nil, fmt.Errorf("pool %d: invalid deposit %q: %w", i, p.DepositX, err)
		}
		if pool.DepositY, err = uint256.FromDecimal(p.DepositY); err != nil {
			return nil, fmt.Errorf("pool %d: invalid deposit %q: %w", i, p.DepositY, err)
		}
		g.Pools = append(g.Pools, pool)
	}
	return g, nil
}

func (g *Genesis) asset(s string) (ids.ID, error) {
	if s == nativeAlias {
		return g.NativeAsset, nil
	}
	id, err := ids.FromString(s)
	if err != nil {
		return ids.Empty, fmt.Errorf("invalid asset %q: %w", s, err)
	}
	return id, nil
}

func parseState(s string) (registry.State, error) {
	if s == "" {
		return registry.Closed, nil
	}
	for state := registry.Closed; state.Valid(); state++ {
		if strings.EqualFold(s, state.String()) {
			return state, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownRegistryState, s)
}

// Apply writes the genesis state into d. Pools are added through the
// registry by the owner, so the owner must be allocated their deposits.
// The registry is left in the genesis state afterwards.
func (g *Genesis) Apply(d *state.Diff) error {
	if err := d.Registry.Create(g.Owner); err != nil {
		return err
	}
	for _, a := range g.Allocations {
		if err := d.Assets.Mint(a.Asset, a.Address, a.Amount); err != nil {
			return fmt.Errorf("failed to allocate %s to %s: %w", a.Asset, a.Address, err)
		}
	}

	owner := assets.Call{Caller: g.Owner}
	if len(g.Pools) > 0 {
		// Pools can't be added while the registry is closed.
		if _, err := d.Registry.SetState(owner, registry.Paused); err != nil {
			return err
		}
	}
	for i, p := range g.Pools {
		if err := g.addPool(d, p); err != nil {
			return fmt.Errorf("failed to add genesis pool %d: %w", i, err)
		}
	}
	rec, err := d.Registry.Record()
	if err != nil {
		return err
	}
	if rec.State == g.State {
		return nil
	}
	_, err = d.Registry.SetState(owner, g.State)
	return err
}

func (g *Genesis) addPool(d *state.Diff, p GenesisPool) error {
	registryAddr := d.Registry.Address()
	if err := d.Assets.Approve(p.AssetY, g.Owner, registryAddr, p.DepositY); err != nil {
		return err
	}
	if p.AssetX == g.NativeAsset {
		call := assets.Call{Caller: g.Owner, Value: p.DepositX}
		_, err := d.Registry.AddNativeLiquidityPool(call, p.AssetY, p.FeePerMille, p.DepositY)
		return err
	}
	if err := d.Assets.Approve(p.AssetX, g.Owner, registryAddr, p.DepositX); err != nil {
		return err
	}
	_, err := d.Registry.AddTokenLiquidityPool(
		assets.Call{Caller: g.Owner},
		p.AssetX,
		p.AssetY,
		p.FeePerMille,
		p.DepositX,
		p.DepositY,
	)
	return err
}
